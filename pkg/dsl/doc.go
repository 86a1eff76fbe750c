/*
Package dsl provides a fluent builder for flow definitions, for hosts that
construct flows in code rather than loading JSON or YAML documents.

	def, err := dsl.NewFlow("greeting").
		Start("hello").
		Node("hello").Content("Hello, ${name}!").
		Outlet("next", "bye").Done().
		Node("bye").Content("Goodbye.").
		Build()
*/
package dsl
