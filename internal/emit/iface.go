package emit

import (
	"github.com/dave/jennifer/jen"
)

// interfaceFile declares the types shared by every parser generated from
// the same grammar: states, actions, events and errors.
func interfaceFile(m *model, opts Options) *jen.File {
	f := jen.NewFile(opts.Package)
	header(f, opts)

	f.Comment("State is a position in the header automaton.")
	f.Type().Id("State").Int()
	f.Const().Defs(
		jen.Id("StateStart").Id("State").Op("=").Lit(m.table.Start),
		jen.Comment("StateDone is reached after the blank line ending the header block."),
		jen.Id("StateDone").Id("State").Op("=").Lit(m.done),
		jen.Id("NumStates").Op("=").Lit(len(m.table.States)),
	)
	f.Line()

	f.Comment("MaxCapture bounds a single captured value.")
	f.Const().Id("MaxCapture").Op("=").Lit(opts.MaxCapture)
	f.Line()

	f.Comment("Action identifies what an event matched.")
	f.Type().Id("Action").Int()
	defs := make([]jen.Code, 0, len(m.actions))
	for i, id := range m.actions {
		defs = append(defs, jen.Id(id).Id("Action").Op("=").Lit(i).Comment(m.table.Actions[i].Label()))
	}
	f.Const().Defs(defs...)
	f.Line()

	names := make([]jen.Code, 0, len(m.actions))
	for _, a := range m.table.Actions {
		names = append(names, jen.Lit(a.Label()))
	}
	f.Var().Id("actionNames").Op("=").Index(jen.Op("...")).String().Values(names...)
	f.Line()
	f.Func().Params(jen.Id("a").Id("Action")).Id("String").Params().String().Block(
		jen.If(jen.Id("a").Op(">=").Lit(0).Op("&&").Int().Call(jen.Id("a")).Op("<").Len(jen.Id("actionNames"))).Block(
			jen.Return(jen.Id("actionNames").Index(jen.Id("a"))),
		),
		jen.Return(jen.Qual("fmt", "Sprintf").Call(jen.Lit("Action(%d)"), jen.Int().Call(jen.Id("a")))),
	)
	f.Line()

	f.Comment("Event is one fired action. Offset is the position of the byte that")
	f.Comment("completed it, counted from the last Reset.")
	f.Type().Id("Event").Struct(
		jen.Id("Action").Id("Action"),
		jen.Id("Value").String(),
		jen.Id("Offset").Int(),
	)
	f.Line()

	errorTypes(f)

	f.Comment("HeadParser consumes a request or response head in arbitrary chunks.")
	f.Type().Id("HeadParser").Interface(
		jen.Id("Feed").Params(jen.Id("chunk").Index().Byte()).Params(jen.Index().Id("Event"), jen.Int(), jen.Error()),
		jen.Id("Reset").Params(),
		jen.Id("Done").Params().Bool(),
	)
	return f
}

func errorTypes(f *jen.File) {
	f.Var().Defs(
		jen.Id("ErrUnexpectedByte").Op("=").Qual("errors", "New").Call(jen.Lit("unexpected byte")),
		jen.Id("ErrCaptureOverflow").Op("=").Qual("errors", "New").Call(jen.Lit("capture overflow")),
	)
	f.Line()

	f.Type().Id("ErrorKind").Int()
	f.Const().Defs(
		jen.Id("UnexpectedByte").Id("ErrorKind").Op("=").Iota().Op("+").Lit(1),
		jen.Id("CaptureOverflow"),
	)
	f.Line()

	f.Func().Params(jen.Id("k").Id("ErrorKind")).Id("String").Params().String().Block(
		jen.Switch(jen.Id("k")).Block(
			jen.Case(jen.Id("UnexpectedByte")).Block(jen.Return(jen.Lit("unexpected byte"))),
			jen.Case(jen.Id("CaptureOverflow")).Block(jen.Return(jen.Lit("capture overflow"))),
			jen.Default().Block(jen.Return(jen.Qual("fmt", "Sprintf").Call(jen.Lit("ErrorKind(%d)"), jen.Int().Call(jen.Id("k"))))),
		),
	)
	f.Line()

	f.Comment("ParseError stops a parse until Reset.")
	f.Type().Id("ParseError").Struct(
		jen.Id("Kind").Id("ErrorKind"),
		jen.Id("State").Id("State"),
		jen.Id("Offset").Int(),
		jen.Id("Byte").Byte(),
	)
	f.Line()

	f.Func().Params(jen.Id("e").Op("*").Id("ParseError")).Id("Error").Params().String().Block(
		jen.Return(jen.Qual("fmt", "Sprintf").Call(
			jen.Lit("%s 0x%02x at offset %d (state %d)"),
			jen.Id("e").Dot("Kind"), jen.Id("e").Dot("Byte"), jen.Id("e").Dot("Offset"), jen.Id("e").Dot("State"),
		)),
	)
	f.Line()

	f.Func().Params(jen.Id("e").Op("*").Id("ParseError")).Id("Is").Params(jen.Id("target").Error()).Bool().Block(
		jen.Switch(jen.Id("target")).Block(
			jen.Case(jen.Id("ErrUnexpectedByte")).Block(jen.Return(jen.Id("e").Dot("Kind").Op("==").Id("UnexpectedByte"))),
			jen.Case(jen.Id("ErrCaptureOverflow")).Block(jen.Return(jen.Id("e").Dot("Kind").Op("==").Id("CaptureOverflow"))),
		),
		jen.Return(jen.False()),
	)
	f.Line()
}
