package grammar

// NHTTPName is the name of the built-in printer web server grammar.
const NHTTPName = "nhttp"

// NHTTPRules is the header set the printer's request parser is generated from.
func NHTTPRules() map[string]RuleSpec {
	return map[string]RuleSpec{
		"X-Api-Key":          {Name: "XApiKey", Kind: HeaderValue{}, Capture: true},
		"Content-Length":     {Name: "ContentLength", Kind: ContentLength{}, Capture: true},
		"If-None-Match":      {Name: "IfNoneMatch", Kind: EntityTag{}, Capture: true},
		"Print-After-Upload": {Name: "PrintAfterUpload", Kind: Presence{}},
		"Content-Type":       {Name: "Boundary", Kind: Boundary{}, Capture: true},
		"Connection":         {Name: "Connection", Kind: TokenSet{Values: []string{"keep-alive", "close"}}, Capture: true},
		"Accept":             {Name: "Accept", Kind: TokenSet{Values: []string{"application/json"}}},
	}
}

// NHTTP builds the built-in request grammar.
func NHTTP() (*Grammar, error) {
	return FromMap(string(StructureRequest), NHTTPRules())
}
