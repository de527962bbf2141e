package emit

import (
	"fmt"

	"github.com/dave/jennifer/jen"
)

// implementationFile writes the tables and the Parser that walks them.
func implementationFile(m *model, opts Options) *jen.File {
	f := jen.NewFile(opts.Package)
	header(f, opts)

	f.Const().Id("actionNone").Id("Action").Op("=").Lit(-1)
	f.Line()

	fields := []jen.Code{
		jen.Id("action").Id("Action"),
		jen.Id("capture").Bool(),
		jen.Id("clear").Bool(),
		jen.Id("terminal").Bool(),
	}
	if opts.Layout == LayoutRanges {
		fields = append(fields, jen.Id("first").Int32(), jen.Id("count").Int32())
	}
	f.Type().Id("stateInfo").Struct(fields...)
	f.Line()

	f.Var().Id("states").Op("=").Index(jen.Id("NumStates")).Id("stateInfo").ValuesFunc(func(g *jen.Group) {
		for _, s := range m.table.States {
			items := []jen.Code{jen.Id("action").Op(":").Add(m.actionRef(s.Action))}
			if s.Capture {
				items = append(items, jen.Id("capture").Op(":").True())
			}
			if s.Clear {
				items = append(items, jen.Id("clear").Op(":").True())
			}
			if s.Count == 0 {
				items = append(items, jen.Id("terminal").Op(":").True())
			}
			if opts.Layout == LayoutRanges {
				items = append(items,
					jen.Id("first").Op(":").Lit(s.First),
					jen.Id("count").Op(":").Lit(s.Count),
				)
			}
			g.Line().Values(items...)
		}
		g.Line()
	})
	f.Line()

	if opts.Layout == LayoutClasses {
		classTables(f, m)
	} else {
		rangeTables(f, m)
	}

	parserDecls(f)
	return f
}

func (m *model) actionRef(a int) jen.Code {
	if a < 0 {
		return jen.Id("actionNone")
	}
	return jen.Id(m.actions[a])
}

func hexByte(c byte) jen.Code {
	return jen.Op(fmt.Sprintf("0x%02x", c))
}

func rangeTables(f *jen.File, m *model) {
	f.Type().Id("transition").Struct(
		jen.List(jen.Id("lo"), jen.Id("hi")).Byte(),
		jen.Id("next").Id("State"),
	)
	f.Line()

	f.Comment("transitions holds every state's ranges, sorted by byte, at states[s].first.")
	f.Var().Id("transitions").Op("=").Index(jen.Op("...")).Id("transition").ValuesFunc(func(g *jen.Group) {
		for _, r := range m.table.Ranges {
			g.Line().Values(
				jen.Id("lo").Op(":").Add(hexByte(r.Lo)),
				jen.Id("hi").Op(":").Add(hexByte(r.Hi)),
				jen.Id("next").Op(":").Lit(r.Next),
			)
		}
		g.Line()
	})
	f.Line()

	f.Func().Id("next").Params(jen.Id("s").Id("State"), jen.Id("c").Byte()).Id("State").Block(
		jen.Id("info").Op(":=").Op("&").Id("states").Index(jen.Id("s")),
		jen.List(jen.Id("lo"), jen.Id("hi")).Op(":=").List(
			jen.Id("info").Dot("first"),
			jen.Id("info").Dot("first").Op("+").Id("info").Dot("count"),
		),
		jen.For(jen.Id("lo").Op("<").Id("hi")).Block(
			jen.Id("mid").Op(":=").Id("lo").Op("+").Parens(jen.Id("hi").Op("-").Id("lo")).Op("/").Lit(2),
			jen.If(jen.Id("transitions").Index(jen.Id("mid")).Dot("hi").Op("<").Id("c")).Block(
				jen.Id("lo").Op("=").Id("mid").Op("+").Lit(1),
			).Else().Block(
				jen.Id("hi").Op("=").Id("mid"),
			),
		),
		jen.If(
			jen.Id("lo").Op("<").Id("info").Dot("first").Op("+").Id("info").Dot("count").
				Op("&&").Id("transitions").Index(jen.Id("lo")).Dot("lo").Op("<=").Id("c"),
		).Block(
			jen.Return(jen.Id("transitions").Index(jen.Id("lo")).Dot("next")),
		),
		jen.Return(jen.Lit(-1)),
	)
	f.Line()
}

func classTables(f *jen.File, m *model) {
	bc := m.table.Classes()

	f.Const().Id("numClasses").Op("=").Lit(bc.Count)
	f.Line()

	f.Comment("byteClass maps each byte to a column of transitions.")
	f.Var().Id("byteClass").Op("=").Index(jen.Lit(256)).Uint8().ValuesFunc(func(g *jen.Group) {
		for c, class := range bc.Map {
			if c%16 == 0 {
				g.Line().Lit(class)
			} else {
				g.Lit(class)
			}
		}
		g.Line()
	})
	f.Line()

	f.Comment("transitions is a NumStates by numClasses matrix; -1 rejects the byte.")
	f.Var().Id("transitions").Op("=").Index(jen.Id("NumStates").Op("*").Id("numClasses")).Int32().ValuesFunc(func(g *jen.Group) {
		for i, next := range bc.Next {
			if i%bc.Count == 0 {
				g.Line().Lit(next)
			} else {
				g.Lit(next)
			}
		}
		g.Line()
	})
	f.Line()

	f.Func().Id("next").Params(jen.Id("s").Id("State"), jen.Id("c").Byte()).Id("State").Block(
		jen.Return(jen.Id("State").Call(
			jen.Id("transitions").Index(
				jen.Int().Call(jen.Id("s")).Op("*").Id("numClasses").Op("+").Int().Call(jen.Id("byteClass").Index(jen.Id("c"))),
			),
		)),
	)
	f.Line()
}

func parserDecls(f *jen.File) {
	p := func(field string) *jen.Statement { return jen.Id("p").Dot(field) }
	parseError := func(kind string) *jen.Statement {
		return jen.Op("&").Id("ParseError").Values(jen.Dict{
			jen.Id("Kind"):   jen.Id(kind),
			jen.Id("State"):  p("state"),
			jen.Id("Offset"): p("offset"),
			jen.Id("Byte"):   jen.Id("c"),
		})
	}

	f.Comment("Parser is the cursor of one head. The zero value is not usable; call NewParser.")
	f.Type().Id("Parser").Struct(
		jen.Id("state").Id("State"),
		jen.Id("buf").Index().Byte(),
		jen.Id("offset").Int(),
		jen.Id("done").Bool(),
		jen.Id("err").Error(),
	)
	f.Line()
	f.Var().Id("_").Id("HeadParser").Op("=").Parens(jen.Op("*").Id("Parser")).Parens(jen.Nil())
	f.Line()

	f.Func().Id("NewParser").Params().Op("*").Id("Parser").Block(
		jen.Return(jen.Op("&").Id("Parser").Values(jen.Dict{
			jen.Id("state"): jen.Id("StateStart"),
		})),
	)
	f.Line()

	f.Comment("Feed consumes chunk and returns the completed events and the number of")
	f.Comment("bytes consumed. It stops once the head is complete. A failed parser keeps")
	f.Comment("returning its error until Reset.")
	f.Func().Params(jen.Id("p").Op("*").Id("Parser")).Id("Feed").
		Params(jen.Id("chunk").Index().Byte()).
		Params(jen.Index().Id("Event"), jen.Int(), jen.Error()).
		Block(
			jen.If(p("err").Op("!=").Nil()).Block(
				jen.Return(jen.Nil(), jen.Lit(0), p("err")),
			),
			jen.Line(),
			jen.Var().Id("events").Index().Id("Event"),
			jen.For(jen.List(jen.Id("i"), jen.Id("c")).Op(":=").Range().Id("chunk")).Block(
				jen.If(p("done")).Block(
					jen.Return(jen.Id("events"), jen.Id("i"), jen.Nil()),
				),
				jen.Line(),
				jen.Id("n").Op(":=").Id("next").Call(p("state"), jen.Id("c")),
				jen.If(jen.Id("n").Op("<").Lit(0)).Block(
					p("err").Op("=").Add(parseError("UnexpectedByte")),
					jen.Return(jen.Id("events"), jen.Id("i"), p("err")),
				),
				jen.Line(),
				jen.Id("info").Op(":=").Op("&").Id("states").Index(jen.Id("n")),
				jen.Id("kept").Op(":=").Len(p("buf")),
				jen.If(jen.Id("info").Dot("action").Op("!=").Id("actionNone").Op("||").Id("info").Dot("clear")).Block(
					jen.Id("kept").Op("=").Lit(0),
				),
				jen.If(jen.Id("info").Dot("capture").Op("&&").Id("kept").Op(">=").Id("MaxCapture")).Block(
					p("err").Op("=").Add(parseError("CaptureOverflow")),
					jen.Return(jen.Id("events"), jen.Id("i"), p("err")),
				),
				jen.Line(),
				jen.If(jen.Id("info").Dot("action").Op("!=").Id("actionNone")).Block(
					jen.Id("events").Op("=").Append(jen.Id("events"), jen.Id("Event").Values(jen.Dict{
						jen.Id("Action"): jen.Id("info").Dot("action"),
						jen.Id("Value"):  jen.String().Call(p("buf")),
						jen.Id("Offset"): p("offset"),
					})),
				),
				p("buf").Op("=").Add(p("buf")).Index(jen.Empty(), jen.Id("kept")),
				jen.If(jen.Id("info").Dot("capture")).Block(
					p("buf").Op("=").Append(p("buf"), jen.Id("c")),
				),
				jen.Line(),
				p("state").Op("=").Id("n"),
				p("offset").Op("++"),
				p("done").Op("=").Id("info").Dot("terminal"),
			),
			jen.Return(jen.Id("events"), jen.Len(jen.Id("chunk")), jen.Nil()),
		)
	f.Line()

	f.Comment("Reset starts a new head, keeping the capture buffer's memory.")
	f.Func().Params(jen.Id("p").Op("*").Id("Parser")).Id("Reset").Params().Block(
		p("state").Op("=").Id("StateStart"),
		p("buf").Op("=").Add(p("buf")).Index(jen.Empty(), jen.Lit(0)),
		p("offset").Op("=").Lit(0),
		p("done").Op("=").False(),
		p("err").Op("=").Nil(),
	)
	f.Line()

	f.Comment("Done reports whether the blank line ending the head has been consumed.")
	f.Func().Params(jen.Id("p").Op("*").Id("Parser")).Id("Done").Params().Bool().Block(
		jen.Return(p("done")),
	)
	f.Line()

	f.Func().Params(jen.Id("p").Op("*").Id("Parser")).Id("State").Params().Id("State").Block(
		jen.Return(p("state")),
	)
}
