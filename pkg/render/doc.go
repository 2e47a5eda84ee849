// Package render converts rendered story diagrams between output formats.
//
// Diagrams are produced as SVG by the [nodelink] subpackage. [ToPDF] and
// [ToPNG] convert SVG with the external rsvg-convert tool:
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(pkg, nodelink.Options{}))
//	png, err := render.ToPNG(svg, 2.0)
//
// [nodelink]: github.com/matzehuels/storybox/pkg/render/nodelink
package render
