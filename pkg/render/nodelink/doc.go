// Package nodelink draws story graphs as node-link diagrams.
//
// [ToDOT] produces Graphviz DOT source for a loaded package; [RenderSVG]
// lays it out in-process with go-graphviz:
//
//	dot := nodelink.ToDOT(pkg, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// PDF and PNG output go through SVG and need rsvg-convert from librsvg.
package nodelink
