// Package appspec loads app definitions written in CUE.
//
// An app lives under the top-level "app" struct:
//
//	app: counter: {
//		template: """
//			(div (span count) (button (@click "increment") "+"))
//			"""
//		context: "ctx"
//		pretty: enabled: false
//		state: count: 0
//		actions: increment: {op: "increment", key: "count"}
//	}
//
// template_file may replace template; it is read relative to the
// specs directory.
package appspec
