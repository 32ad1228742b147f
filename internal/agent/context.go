package agent

import "strings"

// StageOutput is one stage's contribution to the shared context.
type StageOutput struct {
	Stage string
	Text  string
}

// Context is the shared state threaded through one pipeline run.
// Query, SourcePath and DocumentText are set once before the first
// stage and are read-only thereafter; StageOutputs is append-only and
// never reordered. A Context lives for exactly one run and is not
// persisted beyond job completion.
type Context struct {
	Query        string
	SourcePath   string
	DocumentText string
	StageOutputs []StageOutput
}

// Append records a stage's output. Later stages may read earlier
// entries but must not rewrite them.
func (c *Context) Append(stage, text string) {
	c.StageOutputs = append(c.StageOutputs, StageOutput{Stage: stage, Text: text})
}

// Output returns the text a named stage produced, if it has run.
func (c *Context) Output(stage string) (string, bool) {
	for _, out := range c.StageOutputs {
		if out.Stage == stage {
			return out.Text, true
		}
	}
	return "", false
}

// Transcript renders the accumulated stage outputs as the final
// consolidated report, in execution order.
func (c *Context) Transcript() string {
	var b strings.Builder
	for i, out := range c.StageOutputs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## ")
		b.WriteString(stageTitle(out.Stage))
		b.WriteString("\n\n")
		b.WriteString(out.Text)
	}
	return b.String()
}
