// Package loader reads pipeline descriptions and builds pipelines from them.
//
// A Blueprint names processes by type, gives each a string configuration,
// and lists the connections between their ports. Blueprints can be written
// in YAML or HCL and may include other blueprints by name.
//
// # YAML
//
//	name: demo
//	includes: [sources]
//	processes:
//	  - name: sink
//	    type: collector
//	    config:
//	      check: sync
//	connections:
//	  - src.number -> sink.value
//	  - from: sink.value
//	    to: other.in
//	    nodep: true
//	    capacity: 8
//
// # HCL
//
//	name     = "demo"
//	includes = ["sources"]
//
//	process "collector" "sink" {
//	  config = {
//	    check = "sync"
//	  }
//	}
//
//	connect "src.number" "sink.value" {}
//
// # Building
//
//	bp, err := loader.LoadFile("pipelines/demo.yaml")
//	reg, _ := processes.NewRegistry()
//	pipe, err := loader.Build(bp, reg)
//	err = pipe.Setup(ctx)
//
// Includes are resolved against the directory of the including file and
// any extra directories given to NewFileLoader. Circular includes fail;
// a blueprint reached twice through different branches is merged once.
package loader
