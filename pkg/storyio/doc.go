// Package storyio exports loaded story packages as JSON or YAML snapshots.
//
// A snapshot records package metadata, every node with its transitions, the
// asset table and the validation report. It is meant for inspection, diffs
// between package revisions and tooling that cannot read the binary device
// format. Key material is never written.
//
// # Format
//
//	{
//	  "version": 1,
//	  "id": "FOREST01",
//	  "format": "studio",
//	  "root": 0,
//	  "nodes": [
//	    {"id": "...", "name": "Cover", "kind": "stage", "image": 0, "audio": 1,
//	     "transitions": [{"condition": "ok", "target": 3, "entry": -1}]}
//	  ],
//	  "assets": [
//	    {"kind": "image", "locator": "cover.png", "path": "cover.png"}
//	  ]
//	}
//
// Nodes refer to assets by their row in the asset table, so nodes that share
// a pack entry share a row. Option transitions carry a 1-based "option" and
// the "options" count. An "entry" of -1 means no pre-selected option and -2
// a random one.
//
// # Round Trip
//
// [Snapshot.Raw] turns a snapshot back into a [story.RawPackage]; building
// and validating it yields the same graph the snapshot was taken from.
package storyio
