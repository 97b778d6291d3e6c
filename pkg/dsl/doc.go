/*
Package dsl builds wizard descriptions in Go instead of YAML or JSON files.

Menus and forms are declared by path and compiled into a memory source that
can be handed to stepwise.New:

	b := dsl.New()

	b.Menu("start").
		Option("Sign up", dsl.To("account")).
		Option("Leave", dsl.Lazy("bye"), dsl.Submit())

	b.Form("account").
		Describe("Create your account").
		Field("email").
		Verified("plan", dsl.Choice("Free"), dsl.Choice("Pro")).
		Next(dsl.To("confirm"))

	b.Form("confirm").Field("nickname").SubmitOnComplete()
	b.Form("bye").Field("reason")

	source, err := b.Build()
	if err != nil {
		// handle builder misuse or invalid descriptions
	}
	eng, err := stepwise.New("", stepwise.WithSources(source))
*/
package dsl
