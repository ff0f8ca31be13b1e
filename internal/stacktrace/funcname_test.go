package stacktrace

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParseFunctionName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Function
	}{
		{
			name: "dotted call with literal args",
			in:   "a.b.c(1, 2)",
			want: Function{Name: "a.b", Method: "c", RawName: "a.b.c(1, 2)", Args: []any{1.0, 2.0}, Flags: Flags{FlagArgs, FlagDirect}},
		},
		{
			name: "getter",
			in:   "get foo",
			want: Function{Name: "foo", Prefix: "get", RawName: "get foo", Flags: Flags{FlagPrefix, FlagGetter}},
		},
		{
			name: "constructor with method",
			in:   "new Foo.Bar",
			want: Function{Name: "Foo", Method: "Bar", Prefix: "new", RawName: "new Foo.Bar", Flags: Flags{FlagPrefix, FlagConstructor}},
		},
		{
			name: "prefix wins over dotted path",
			in:   "get a.b",
			want: Function{Name: "a", Method: "b", Prefix: "get", RawName: "get a.b", Flags: Flags{FlagPrefix, FlagGetter}},
		},
		{
			name: "async member",
			in:   "async Promise.all",
			want: Function{Name: "Promise", Method: "all", Prefix: "async", RawName: "async Promise.all", Flags: Flags{FlagPrefix, FlagAsync}},
		},
		{
			name: "async",
			in:   "async run",
			want: Function{Name: "run", Prefix: "async", RawName: "async run", Flags: Flags{FlagPrefix, FlagAsync}},
		},
		{
			name: "anonymous member",
			in:   "Object.<anonymous>",
			want: Function{Name: "Object", Anonymous: true},
		},
		{
			name: "relative path",
			in:   "./foo",
			want: Function{RawName: "./foo", Anonymous: true},
		},
		{
			name: "bracket access",
			in:   "a[b]",
			want: Function{Name: "a", Method: "b", RawName: "a[b]", Flags: Flags{FlagDirect}},
		},
		{
			name: "eval",
			in:   "eval",
			want: Function{Name: "eval", Flags: Flags{FlagEval}},
		},
		{
			name: "empty args",
			in:   "foo()",
			want: Function{Name: "foo", RawName: "foo()", Args: []any{}, Flags: Flags{FlagArgs}},
		},
		{
			name: "non literal args fall back to split",
			in:   "foo(x, y)",
			want: Function{Name: "foo", RawName: "foo(x, y)", Args: []any{"x", "y"}, Flags: Flags{FlagArgs}},
		},
		{
			name: "mixed literals",
			in:   "foo('a', true, null, -1)",
			want: Function{Name: "foo", RawName: "foo('a', true, null, -1)", Args: []any{"a", true, nil, -1.0}, Flags: Flags{FlagArgs}},
		},
		{
			name: "plain",
			in:   "handler",
			want: Function{Name: "handler"},
		},
		{
			name: "empty",
			in:   "",
			want: Function{Anonymous: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFunctionName(tt.in, tt.in, "")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseFunctionName(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestFunctionRendering(t *testing.T) {
	fn := ParseFunctionName("a.b.c(1, 2)", "a.b.c(1, 2)", "")
	assert.Equal(t, "a.b.c", fn.displayName())
	assert.Equal(t, "(1, 2)", fn.argList())

	fn = Function{Name: "foo", Prefix: "get"}
	assert.Equal(t, "get foo", fn.calleeText())

	fn = Function{Name: "f", Args: []any{"s", nil, 1.5, []any{1.0}}, Flags: Flags{FlagArgs}}
	assert.Equal(t, "f(s, null, 1.5, [1])", fn.calleeText())
}
