// Package pkg holds the libraries behind swarmreplay, which turns a particle
// swarm trajectory log into a looping animated GIF.
//
// # Architecture
//
// Data flows through the packages in one direction:
//
//	trajectory CSV
//	      ↓
//	 [trajectory]  load, validate and group records by iteration
//	      ↓
//	 [viewport]    one padded bounding box shared by every frame
//	      ↓
//	 [frame]       rasterize one iteration, best agent on top
//	      ↓
//	 [animation]   quantize and stream frames into a GIF
//
// [pipeline] orchestrates these stages with a bounded worker pool and an
// optional [cache] of rendered frames. [config] reads settings files,
// [observability] exposes hooks for progress reporting, and [errors]
// defines the coded errors every stage returns.
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	defer runner.Close()
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Input:  "output.csv",
//	    Output: "positions.gif",
//	})
//
// [trajectory]: github.com/matzehuels/swarmreplay/pkg/trajectory
// [viewport]: github.com/matzehuels/swarmreplay/pkg/viewport
// [frame]: github.com/matzehuels/swarmreplay/pkg/frame
// [animation]: github.com/matzehuels/swarmreplay/pkg/animation
// [pipeline]: github.com/matzehuels/swarmreplay/pkg/pipeline
// [cache]: github.com/matzehuels/swarmreplay/pkg/cache
// [config]: github.com/matzehuels/swarmreplay/pkg/config
// [observability]: github.com/matzehuels/swarmreplay/pkg/observability
// [errors]: github.com/matzehuels/swarmreplay/pkg/errors
package pkg
