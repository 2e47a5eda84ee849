package story

import "slices"

// Edge is a directed pair of node indices.
type Edge struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

// Report is the validator's verdict on a graph that passed validation.
type Report struct {
	// Warnings are non-fatal findings: unreachable nodes, stages without
	// media, parser warnings.
	Warnings []Finding `json:"warnings" yaml:"warnings"`
	// Reachable counts the nodes reachable from the root.
	Reachable int `json:"reachable" yaml:"reachable"`
	// DeadEnds lists nodes without outgoing transitions.
	DeadEnds []int `json:"dead_ends" yaml:"dead_ends"`
	// BackEdges lists the transitions that close a cycle in a depth-first
	// walk from the root. Stories that loop back home have at least one.
	BackEdges []Edge `json:"back_edges" yaml:"back_edges"`
}

// Package is a fully loaded, validated story package.
type Package struct {
	id     string
	format Format
	path   string
	info   Info
	graph  *Graph
	index  *PackIndex
	report Report
}

// PackageParams collects what [NewPackage] needs.
type PackageParams struct {
	ID        string
	Format    Format
	Path      string
	Info      Info
	Graph     *Graph
	PackIndex *PackIndex
	Report    Report
}

// NewPackage assembles a Package. It is called by the loader once
// validation has succeeded.
func NewPackage(p PackageParams) *Package {
	r := p.Report
	r.Warnings = slices.Clone(r.Warnings)
	r.DeadEnds = slices.Clone(r.DeadEnds)
	r.BackEdges = slices.Clone(r.BackEdges)
	return &Package{
		id:     p.ID,
		format: p.Format,
		path:   p.Path,
		info:   p.Info,
		graph:  p.Graph,
		index:  p.PackIndex,
		report: r,
	}
}

// ID returns the package identifier.
func (p *Package) ID() string { return p.id }

// Format returns the format the package was read from.
func (p *Package) Format() Format { return p.format }

// Path returns the package directory, the base every asset is resolved
// against.
func (p *Package) Path() string { return p.path }

// Info returns package metadata.
func (p *Package) Info() Info { return p.info }

// Graph returns the story graph.
func (p *Package) Graph() *Graph { return p.graph }

// Root returns the graph's starting node.
func (p *Package) Root() Node { return p.graph.Root() }

// PackIndex returns the asset table of a device package, nil otherwise.
func (p *Package) PackIndex() *PackIndex { return p.index }

// Warnings returns the non-fatal findings recorded while loading.
func (p *Package) Warnings() []Finding { return slices.Clone(p.report.Warnings) }

// Report returns a copy of the validation report.
func (p *Package) Report() Report {
	r := p.report
	r.Warnings = slices.Clone(r.Warnings)
	r.DeadEnds = slices.Clone(r.DeadEnds)
	r.BackEdges = slices.Clone(r.BackEdges)
	return r
}
