package stacktrace

// CallSite is the structured description of one frame as reported by an
// engine that exposes its call stack directly.
type CallSite struct {
	Scope    string           `json:"scope,omitempty"`
	Function CallSiteFunction `json:"func"`
	Location CallSiteLocation `json:"location"`
}

type CallSiteFunction struct {
	Name        string `json:"name,omitempty"`
	TypeName    string `json:"typeName,omitempty"`
	SourceCode  string `json:"sourceCode,omitempty"`
	Native      bool   `json:"native"`
	Constructor bool   `json:"constructor"`
	Async       bool   `json:"async"`
	TopLevel    bool   `json:"topLevel"`
	EvalOrigin  string `json:"evalOrigin,omitempty"`
	IsEval      bool   `json:"isEval"`
	PromiseAll  bool   `json:"promiseAll"`
	PromiseIdx  *int   `json:"promiseIndex,omitempty"`
}

type CallSiteLocation struct {
	SourceURL       string `json:"sourceURL,omitempty"`
	ScriptHash      string `json:"scriptHash,omitempty"`
	Line            *int   `json:"line,omitempty"`
	Column          *int   `json:"column,omitempty"`
	Position        *int   `json:"position,omitempty"`
	EnclosingLine   *int   `json:"enclosingLine,omitempty"`
	EnclosingColumn *int   `json:"enclosingColumn,omitempty"`
}

// CallSiteProvider returns the V8-style stack text for in along with call
// sites aligned with its frame lines (header line excluded). ok is false
// when the engine cannot introspect the error.
type CallSiteProvider func(in Input) (stack string, sites []CallSite, ok bool)
