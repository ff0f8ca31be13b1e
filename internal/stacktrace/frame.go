package stacktrace

import "github.com/yousuf/stackbraid/internal/strutil"

// Format identifies the stack-trace dialect a frame was written in.
type Format string

const (
	FormatV8           Format = "V8"
	FormatSpiderMonkey Format = "SpiderMonkey"
	FormatIE           Format = "IE"
	FormatCarakan      Format = "carakan"
	FormatLinearB      Format = "linear-b"
	FormatEspruino     Format = "Espruino"
)

// Formats lists every dialect in detection order.
var Formats = []Format{FormatCarakan, FormatLinearB, FormatEspruino, FormatV8, FormatIE, FormatSpiderMonkey}

// LookupFormat finds the dialect called name, ignoring case and separators.
func LookupFormat(name string) (Format, bool) {
	key := strutil.FoldKey(name)
	for _, f := range Formats {
		if strutil.FoldKey(string(f)) == key {
			return f, true
		}
	}
	return "", false
}

// Known hosts.
const (
	HostChromium     = "Chromium"
	HostNode         = "Node.js"
	HostBun          = "Bun"
	HostFirefox      = "Firefox"
	HostSafari       = "Safari"
	HostIE           = "Internet Explorer"
	HostOpera        = "Opera"
	HostMicrocontrol = "Microcontroller Unit"
)

// EnvType classifies where the engine ran.
type EnvType string

const (
	EnvBrowser     EnvType = "browser"
	EnvRuntime     EnvType = "runtime"
	EnvInterpreter EnvType = "interpreter"
)

// Environment records which engine produced a frame.
type Environment struct {
	Host   string  `json:"host"`
	Format Format  `json:"format"`
	Type   EnvType `json:"type"`
}

// Flag is a small tag describing how a function was invoked.
type Flag string

const (
	FlagDirect         Flag = "DIRECT"
	FlagPrefix         Flag = "PREFIX"
	FlagGetter         Flag = "GETTER"
	FlagSetter         Flag = "SETTER"
	FlagConstructor    Flag = "CONSTRUCTOR"
	FlagAsync          Flag = "ASYNC"
	FlagArgs           Flag = "ARGS"
	FlagEval           Flag = "EVAL"
	FlagNestedAnon     Flag = "NESTED_ANON"
	FlagTimeoutHandler Flag = "TIMEOUT_HANDLER"
	FlagPromiseCB      Flag = "PROMISE_CALLBACK"
	FlagGlobal         Flag = "GLOBAL"
	FlagModule         Flag = "MODULE"
	FlagAnonymous      Flag = "ANONYMOUS"
	FlagREPL           Flag = "REPL"
)

// Flags is an ordered set of flags.
type Flags []Flag

// Has reports whether f is in the set.
func (fs Flags) Has(f Flag) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}

// Add appends f unless it is already present.
func (fs Flags) Add(f ...Flag) Flags {
	for _, x := range f {
		if !fs.Has(x) {
			fs = append(fs, x)
		}
	}
	return fs
}

// Tag is the carakan frame kind, derived from the frame's leading phrase.
type Tag string

const (
	TagThrown                 Tag = "thrown"
	TagConstructed            Tag = "constructed"
	TagRethrown               Tag = "rethrown"
	TagToPrimitive            Tag = "toPrimitive"
	TagFunctionPrototypeApply Tag = "functionPrototypeApply"
	TagFunctionPrototypeCall  Tag = "functionPrototypeCall"
	TagFunctionPrototypeBind  Tag = "functionPrototypeBind"
	TagFunctionCall           Tag = "functionCall"
)

// Function describes the callee of a frame.
type Function struct {
	Name      string    `json:"name"`
	RawName   string    `json:"rawName,omitempty"`
	Method    string    `json:"method,omitempty"`
	Alias     string    `json:"alias,omitempty"`
	Prefix    string    `json:"prefix,omitempty"`
	// Label is the async cause SpiderMonkey prints before "*".
	Label     string    `json:"label,omitempty"`
	Args      []any     `json:"args,omitempty"`
	Anonymous bool      `json:"anonymous"`
	Flags     Flags     `json:"flags,omitempty"`
	// Index is the position marker of a nested anonymous segment ("[2]<").
	Index     *int      `json:"index,omitempty"`
	// Func is the next segment of a nested (slash-separated) name.
	Func      *Function `json:"func,omitempty"`
}

// Script is the linear-b script descriptor.
type Script struct {
	Type  string `json:"type"`
	Index *int   `json:"index,omitempty"`
}

// Location describes where a frame executed. Eval links reuse the
// same shape, chained through Eval.
type Location struct {
	SourceURL    string    `json:"sourceURL"`
	FileName     string    `json:"fileName"`
	Line         *int      `json:"line"`
	Column       *int      `json:"column"`
	Anonymous    bool      `json:"anonymous"`
	Type         string    `json:"type,omitempty"`
	Script       *Script   `json:"script,omitempty"`
	Context      string    `json:"context,omitempty"`
	Caret        string    `json:"caret,omitempty"`
	InlineSource string    `json:"inlineSource,omitempty"`
	// Name is the callee of a V8 "eval at NAME (...)" link.
	Name         string    `json:"name,omitempty"`
	Eval         *Location `json:"eval,omitempty"`
}

// positioned reports whether l carries any concrete position.
func (l *Location) positioned() bool {
	return l.SourceURL != "" || l.Line != nil
}

// SourceContext holds the lines surrounding a frame's position.
type SourceContext struct {
	Above []string `json:"above"`
	Line  string   `json:"line"`
	Below []string `json:"below"`
}

// Frame is the engine-neutral representation of one stack-trace line.
type Frame struct {
	Raw          string         `json:"raw"`
	Func         Function       `json:"func"`
	Location     Location       `json:"location"`
	Environment  Environment    `json:"environment"`
	Type         Tag            `json:"type,omitempty"`
	CallSite     *CallSite      `json:"callSite,omitempty"`
	SourceMapped bool           `json:"sourceMapped,omitempty"`
	Source       *SourceContext `json:"source,omitempty"`
}

func intPtr(v int) *int { return &v }
