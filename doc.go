// Package twin is a retained-mode 3D scene graph for driving an appliance
// digital twin: a part hierarchy with transforms and triangle meshes, precise
// world-space bounds, tween timelines (via [gween]) and a wireframe viewer on
// [Ebitengine].
//
// The geometry-driven mating-feature engine lives in package mating, the
// animated choreographies in choreo, screw motion in fastener and the
// end-to-end damper service procedure in service.
//
// # Quick start
//
//	scene := twin.NewScene(logger)
//	housing := twin.NewBox("housing", r3.Vec{X: -1}, r3.Vec{X: 1, Y: 2, Z: 1})
//	scene.Root().AddChild(housing)
//	twin.Run(scene, twin.RunConfig{Title: "Twin", Width: 960, Height: 640})
//
// For headless use, call [Scene.Tick] with a fixed step instead of Run.
//
// # Scene graph
//
// Every element is a [Node]. Nodes form a tree rooted at [Scene.Root].
// Children inherit their parent's transform. Local transforms are
// translation, rotation (unit quaternion) and scale; world transforms are
// computed lazily and cached behind dirty flags.
//
// # Threading
//
// A scene has one mutator, the goroutine calling Tick. Long-running
// procedures run on their own goroutine and reach the tree through
// [Scene.Call], then wait on animation handles with [Timeline.Wait].
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package twin
