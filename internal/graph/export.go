package graph

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

type exportDoc struct {
	Nodes      []Node     `json:"nodes"`
	Links      []Link     `json:"links"`
	Properties []Property `json:"properties"`
}

// ExportJSON returns the model as pretty-printed JSON.
func (m *Model) ExportJSON() ([]byte, error) {
	doc := exportDoc{Nodes: m.Nodes(), Links: m.Links(), Properties: m.Properties()}
	if doc.Nodes == nil {
		doc.Nodes = []Node{}
	}
	if doc.Links == nil {
		doc.Links = []Link{}
	}
	if doc.Properties == nil {
		doc.Properties = []Property{}
	}
	return json.MarshalIndent(doc, "", "  ")
}

var dotShapes = map[Kind]string{
	KindClass:      "ellipse",
	KindIndividual: "box",
	KindProperty:   "diamond",
	KindUnknown:    "plaintext",
}

// ExportDOT returns the model in Graphviz DOT format.
func (m *Model) ExportDOT() string {
	var b strings.Builder
	b.WriteString("digraph ontology {\n")
	b.WriteString("  rankdir=BT;\n")
	b.WriteString("  node [style=rounded];\n\n")

	for _, n := range m.nodes {
		b.WriteString(fmt.Sprintf("  %q [label=%q, shape=%s];\n", n.ID, n.Label, dotShapes[n.Kind]))
	}

	b.WriteString("\n")
	for _, l := range m.Links() {
		style := ""
		if l.Label == LabelSubClassOf {
			style = ", arrowhead=empty"
		} else if l.Label == LabelType {
			style = ", style=dashed"
		}
		b.WriteString(fmt.Sprintf("  %q -> %q [label=%q%s];\n", l.Source.ID(), l.Target.ID(), l.Label, style))
	}

	b.WriteString("}\n")
	return b.String()
}

// HTMLOptions controls the generated viewer page.
type HTMLOptions struct {
	Title string
	// Live makes the page render frames streamed from /ws and send input to
	// the /api endpoints instead of simulating locally.
	Live bool
}

// ExportHTML returns a self-contained HTML page with a force-directed view of the model.
func (m *Model) ExportHTML(opts HTMLOptions) string {
	type jsNode struct {
		ID    string  `json:"id"`
		Label string  `json:"label"`
		Kind  Kind    `json:"kind"`
		R     float64 `json:"r"`
	}
	type jsLink struct {
		Source string `json:"source"`
		Target string `json:"target"`
		Label  string `json:"label"`
	}

	nodes := make([]jsNode, 0, len(m.nodes))
	for _, n := range m.nodes {
		nodes = append(nodes, jsNode{ID: n.ID, Label: n.Label, Kind: n.Kind, R: n.Radius()})
	}
	links := make([]jsLink, 0)
	for _, l := range m.Links() {
		links = append(links, jsLink{Source: l.Source.ID(), Target: l.Target.ID(), Label: l.Label})
	}

	nodesJSON, _ := json.Marshal(nodes)
	linksJSON, _ := json.Marshal(links)
	title := opts.Title
	if title == "" {
		title = "ontology"
	}

	return fmt.Sprintf(viewerHTML, html.EscapeString(title), string(nodesJSON), string(linksJSON), opts.Live)
}

const viewerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
body{background:#0f172a;color:#e2e8f0;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;overflow:hidden}
canvas{display:block}
#info{position:fixed;top:16px;left:16px;z-index:10;background:rgba(15,23,42,0.9);border:1px solid rgba(59,130,246,0.3);border-radius:12px;padding:16px 20px;font-size:13px;min-width:200px}
#info h2{color:#60a5fa;font-size:16px;margin-bottom:8px}
.stat{color:#94a3b8;margin:2px 0}
.stat b{color:#e2e8f0}
#panel{position:fixed;top:16px;right:16px;bottom:16px;width:300px;z-index:10;background:rgba(15,23,42,0.95);border:1px solid rgba(255,255,255,0.08);border-radius:12px;padding:16px;font-size:12px;overflow:auto;display:none}
#panel h3{color:#60a5fa;font-size:15px}
#panel .kind{color:#94a3b8;font-style:italic;margin-bottom:8px}
#panel .row{margin:3px 0;color:#cbd5e1;word-break:break-all}
#search{position:fixed;bottom:16px;right:16px;z-index:11;background:rgba(15,23,42,0.9);border:1px solid rgba(59,130,246,0.3);border-radius:8px;padding:8px 14px;color:#e2e8f0;font-size:13px;outline:none;width:240px;font-family:inherit}
#msg{position:fixed;bottom:56px;right:16px;z-index:11;color:#f87171;font-size:12px}
#legend{position:fixed;bottom:16px;left:16px;z-index:10;background:rgba(15,23,42,0.9);border-radius:10px;padding:12px 16px;font-size:11px;color:#94a3b8}
.dot{width:10px;height:10px;border-radius:50%%;display:inline-block;margin-right:6px}
</style>
</head>
<body>
<div id="info">
  <h2 id="title"></h2>
  <div class="stat"><b id="n-nodes">0</b> nodes</div>
  <div class="stat"><b id="n-links">0</b> links</div>
</div>
<div id="panel"></div>
<div id="msg"></div>
<input id="search" type="text" placeholder="Search nodes... (enter)">
<div id="legend"></div>
<canvas id="canvas"></canvas>
<script>
"use strict";
const TITLE=document.title;
let NODES=%s;
let LINKS=%s;
const LIVE=%t;
const COLORS={Class:'#3b82f6',Individual:'#22c55e',Property:'#eab308',Unknown:'#64748b'};

document.getElementById('title').textContent=TITLE;
const legend=document.getElementById('legend');
Object.keys(COLORS).forEach(k=>{
  const row=document.createElement('div');
  const dot=document.createElement('span');dot.className='dot';dot.style.background=COLORS[k];
  row.appendChild(dot);row.appendChild(document.createTextNode(k));legend.appendChild(row);
});

const canvas=document.getElementById('canvas');
const ctx=canvas.getContext('2d');
let W,H;
let view={x:0,y:0,k:1},selection=null,drag=null,frame=null;

function post(path,body){
  return fetch(path,{method:'POST',headers:{'Content-Type':'application/json'},body:JSON.stringify(body)});
}
function resize(){
  W=canvas.width=window.innerWidth;H=canvas.height=window.innerHeight;
  if(LIVE)post('/api/resize',{width:W,height:H});
}
resize();
window.addEventListener('resize',resize);

const sim={nodes:[],links:[],alpha:1};
function build(){
  sim.nodes=NODES.map((n,i)=>{
    const r=10*Math.sqrt(0.5+i),a=i*Math.PI*(3-Math.sqrt(5));
    return {...n,x:W/2+r*Math.cos(a),y:H/2+r*Math.sin(a),vx:0,vy:0,fx:null,fy:null};
  });
  const idx={};sim.nodes.forEach((n,i)=>idx[n.id]=i);
  sim.links=LINKS.map(l=>({...l,si:idx[l.source],ti:idx[l.target]})).filter(l=>l.si!==undefined&&l.ti!==undefined);
  sim.alpha=1;
}
function tick(){
  const ns=sim.nodes,a=sim.alpha;
  if(a<0.001&&!drag)return;
  sim.alpha+=((drag&&drag.node?0.3:0)-a)*0.0228;
  for(const l of sim.links){
    const s=ns[l.si],t=ns[l.ti];
    let dx=t.x+t.vx-s.x-s.vx||1e-6,dy=t.y+t.vy-s.y-s.vy||1e-6,d=Math.sqrt(dx*dx+dy*dy);
    const k=(d-150)/d*a*0.5;dx*=k;dy*=k;t.vx-=dx;t.vy-=dy;s.vx+=dx;s.vy+=dy;
  }
  for(let i=0;i<ns.length;i++)for(let j=i+1;j<ns.length;j++){
    const dx=ns[j].x-ns[i].x,dy=ns[j].y-ns[i].y;let d2=dx*dx+dy*dy;if(d2<1)d2=1;
    const w=-400*a/d2;ns[i].vx+=dx*w;ns[i].vy+=dy*w;ns[j].vx-=dx*w;ns[j].vy-=dy*w;
  }
  let cx=0,cy=0;for(const n of ns){cx+=n.x;cy+=n.y}
  cx=cx/ns.length-W/2;cy=cy/ns.length-H/2;
  for(const n of ns){
    if(n.fx!==null){n.x=n.fx;n.y=n.fy;n.vx=n.vy=0;continue}
    n.vx*=0.6;n.vy*=0.6;n.x+=n.vx-cx;n.y+=n.vy-cy;
  }
}

function toWorld(sx,sy){return[(sx-view.x)/view.k,(sy-view.y)/view.k]}
function current(){return LIVE?(frame?frame.nodes:[]):sim.nodes}
function currentLinks(){
  if(!LIVE)return sim.links.map(l=>({s:sim.nodes[l.si],t:sim.nodes[l.ti],label:l.label}));
  if(!frame)return[];
  const idx={};frame.nodes.forEach(n=>idx[n.id]=n);
  return frame.links.map(l=>({s:idx[l.source],t:idx[l.target],label:l.label})).filter(l=>l.s&&l.t);
}

function draw(){
  ctx.setTransform(1,0,0,1,0,0);ctx.clearRect(0,0,W,H);
  ctx.setTransform(view.k,0,0,view.k,view.x,view.y);
  for(const l of currentLinks()){
    ctx.beginPath();ctx.moveTo(l.s.x,l.s.y);ctx.lineTo(l.t.x,l.t.y);
    ctx.strokeStyle=l.label==='subClassOf'?'#475569':'#334155';ctx.lineWidth=1.5;ctx.stroke();
    ctx.font='9px sans-serif';ctx.fillStyle='#64748b';ctx.textAlign='center';
    ctx.fillText(l.label,(l.s.x+l.t.x)/2,(l.s.y+l.t.y)/2-4);
  }
  for(const n of current()){
    ctx.beginPath();ctx.arc(n.x,n.y,n.r,0,Math.PI*2);
    ctx.fillStyle=COLORS[n.kind]||COLORS.Unknown;ctx.fill();
    if(n.id===selection){ctx.strokeStyle='#f8fafc';ctx.lineWidth=3;ctx.stroke()}
    ctx.font='11px sans-serif';ctx.fillStyle='#e2e8f0';ctx.textAlign='center';
    ctx.fillText(n.label,n.x,n.y+n.r+12);
  }
  document.getElementById('n-nodes').textContent=current().length;
  document.getElementById('n-links').textContent=currentLinks().length;
}

function nodeAt(sx,sy){
  const[wx,wy]=toWorld(sx,sy),ns=current();
  for(let i=ns.length-1;i>=0;i--){
    const n=ns[i],dx=n.x-wx,dy=n.y-wy;
    if(dx*dx+dy*dy<=n.r*n.r)return n;
  }
  return null;
}

function showPanel(id){
  const panel=document.getElementById('panel');
  if(!id){panel.style.display='none';return}
  fetchNode(id).then(v=>{
    panel.textContent='';
    if(!v)return;
    const h=document.createElement('h3');h.textContent=v.node.label;panel.appendChild(h);
    const k=document.createElement('div');k.className='kind';k.textContent=v.node.kind+' - '+v.node.id;panel.appendChild(k);
    const rows=[];
    Object.entries(v.node.attributes||{}).forEach(([key,vals])=>vals.forEach(x=>rows.push(key+': '+x)));
    v.outgoing.forEach(e=>rows.push(e.label+' -> '+e.other.label));
    v.incoming.forEach(e=>rows.push(e.other.label+' -> '+e.label));
    rows.forEach(r=>{const d=document.createElement('div');d.className='row';d.textContent=r;panel.appendChild(d)});
    panel.style.display='block';
  });
}
function fetchNode(id){
  if(LIVE)return fetch('/api/nodes/'+encodeURIComponent(id)).then(r=>r.ok?r.json():null);
  const n=NODES.find(x=>x.id===id);if(!n)return Promise.resolve(null);
  return Promise.resolve({node:{...n,attributes:{}},
    outgoing:LINKS.filter(l=>l.source===id).map(l=>({label:l.label,other:NODES.find(x=>x.id===l.target)||{label:l.target}})),
    incoming:LINKS.filter(l=>l.target===id).map(l=>({label:l.label,other:NODES.find(x=>x.id===l.source)||{label:l.source}}))});
}
function select(id){selection=id;showPanel(id)}

function zoomTo(n){
  const from={...view},to={k:1.5,x:W/2-1.5*n.x,y:H/2-1.5*n.y},t0=performance.now();
  (function step(now){
    let t=Math.min(1,(now-t0)/1000);t=t<0.5?4*t*t*t:1-Math.pow(-2*t+2,3)/2;
    view={k:from.k+(to.k-from.k)*t,x:from.x+(to.x-from.x)*t,y:from.y+(to.y-from.y)*t};
    if(t<1)requestAnimationFrame(step);
  })(t0);
}

canvas.addEventListener('mousedown',e=>{
  const n=nodeAt(e.clientX,e.clientY);
  if(LIVE){post('/api/pointer',{type:'down',x:e.clientX,y:e.clientY})}
  if(n){drag={node:n,moved:false};if(!LIVE){n.fx=n.x;n.fy=n.y;sim.alpha=Math.max(sim.alpha,0.3)}}
  else drag={pan:true,sx:e.clientX,sy:e.clientY,moved:false};
});
canvas.addEventListener('mousemove',e=>{
  if(!drag)return;
  drag.moved=true;
  if(drag.pan){
    const dx=e.clientX-drag.sx,dy=e.clientY-drag.sy;drag.sx=e.clientX;drag.sy=e.clientY;
    if(LIVE)post('/api/camera',{dx:dx,dy:dy,factor:1});else{view.x+=dx;view.y+=dy}
  }else if(LIVE){post('/api/pointer',{type:'move',x:e.clientX,y:e.clientY})}
  else{const[wx,wy]=toWorld(e.clientX,e.clientY);drag.node.fx=wx;drag.node.fy=wy}
});
canvas.addEventListener('mouseup',e=>{
  if(LIVE)post('/api/pointer',{type:'up',x:e.clientX,y:e.clientY});
  if(drag&&drag.node&&!LIVE){drag.node.fx=null;drag.node.fy=null}
  if(drag&&!drag.moved){
    if(LIVE)post('/api/click',{x:e.clientX,y:e.clientY});
    else{const n=nodeAt(e.clientX,e.clientY);select(n?n.id:null)}
  }
  drag=null;
});
canvas.addEventListener('wheel',e=>{
  e.preventDefault();
  const f=e.deltaY>0?0.9:1.1;
  if(LIVE){post('/api/camera',{dx:0,dy:0,factor:f,cx:e.clientX,cy:e.clientY});return}
  const k=Math.max(0.1,Math.min(4,view.k*f)),r=k/view.k;
  view={k:k,x:e.clientX-(e.clientX-view.x)*r,y:e.clientY-(e.clientY-view.y)*r};
},{passive:false});

document.getElementById('search').addEventListener('keydown',function(e){
  if(e.key!=='Enter')return;
  const q=this.value.toLowerCase(),msg=document.getElementById('msg');
  msg.textContent='';
  if(LIVE){
    post('/api/search',{text:this.value}).then(r=>{if(!r.ok)msg.textContent='Node not found.'});
    return;
  }
  const n=sim.nodes.find(n=>n.label.toLowerCase()===q)||sim.nodes.find(n=>n.id.toLowerCase()===q)||
    (q?sim.nodes.find(n=>n.label.toLowerCase().includes(q)):null);
  if(!n){msg.textContent='Node not found.';return}
  select(n.id);zoomTo(n);
});

if(LIVE){
  const ws=new WebSocket((location.protocol==='https:'?'wss://':'ws://')+location.host+'/ws');
  ws.onmessage=ev=>{
    frame=JSON.parse(ev.data);
    view=frame.transform;
    if(frame.selection!==selection)select(frame.selection||null);
  };
}else{build()}

(function loop(){if(!LIVE)tick();draw();requestAnimationFrame(loop)})();
</script>
</body>
</html>`
