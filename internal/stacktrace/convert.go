package stacktrace

import "github.com/yousuf/stackbraid/internal/strutil"

type conversionTarget struct {
	env     Environment
	aliases []string
}

var conversionTargets = []conversionTarget{
	{
		env:     Environment{Host: HostOpera, Format: FormatCarakan, Type: EnvBrowser},
		aliases: []string{"Carakan", "Opera Presto"},
	},
	{
		env:     Environment{Host: HostIE, Format: FormatIE, Type: EnvBrowser},
		aliases: []string{"Edge (Legacy)", "Internet Explorer", "IE", "Chakra"},
	},
	{
		env:     Environment{Host: HostMicrocontrol, Format: FormatEspruino, Type: EnvInterpreter},
		aliases: []string{"Espruino"},
	},
	{
		env:     Environment{Host: HostOpera, Format: FormatLinearB, Type: EnvBrowser},
		aliases: []string{"LinearB", "linear-b", "Linear B"},
	},
	{
		env:     Environment{Host: HostFirefox, Format: FormatSpiderMonkey, Type: EnvBrowser},
		aliases: []string{"Firefox", "Netscape", "Tor", "SpiderMonkey", "Mocha", "Safari", "JavaScriptCore"},
	},
	{
		env:     Environment{Host: HostChromium, Format: FormatV8, Type: EnvBrowser},
		aliases: []string{"Brave", "Chrome", "Chromium", "Edge", "Opera", "Opera GX", "Vivaldi", "Node.js", "Deno", "V8"},
	},
}

var targetIndex = func() map[string]Environment {
	idx := make(map[string]Environment)
	for _, t := range conversionTargets {
		for _, a := range t.aliases {
			idx[strutil.FoldKey(a)] = t.env
		}
	}
	return idx
}()

// ResolveTarget maps a browser, runtime or engine name to the environment
// frames are rewritten to when converted for it. Matching ignores case and
// separators.
func ResolveTarget(name string) (Environment, error) {
	env, ok := targetIndex[strutil.FoldKey(name)]
	if !ok {
		return Environment{}, &UnknownTargetError{Target: name}
	}
	return env, nil
}

// Convert rewrites the environment of every frame in place to target's and
// renders the frames in target's dialect.
func Convert(frames []Frame, target string) (string, error) {
	env, err := ResolveTarget(target)
	if err != nil {
		return "", err
	}
	for i := range frames {
		frames[i].Environment = env
	}
	return Stringify(frames), nil
}
