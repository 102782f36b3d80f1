/*
Package recipe loads node graphs declared in YAML and turns them into dsl definitions.

A recipe names nodes and chains. References use the "@name" form; "~" (or null) leaves an
input slot sparse. Chain elements may also be inline node specs:

	chains:
	  shape:
	    inputs: ["@source"]
	    elements:
	      - {parent: /obj/geo1, type: xform, params: {ty: 1}}
	      - "@finish"

Without an explicit targets list, every entry that nothing else refers to is a target.
*/
package recipe
