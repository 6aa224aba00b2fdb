// Package postprocess implements the ordered text-transform chain applied
// to raw engine output: acronym fusion, capitalization/pronoun fixup,
// grammar/spell correction, and app-category-aware sanitization.
package postprocess

// Config toggles individual pipeline steps, sourced from the daemon's
// enable_acronyms/enable_punctuation/enable_grammar configuration keys.
// Sanitization is never toggled off — it is the safety boundary before
// text reaches an external surface.
type Config struct {
	EnableAcronyms    bool
	EnablePunctuation bool
	EnableGrammar     bool
}

// Pipeline runs the four-step chain. Each step is idempotent on its own
// output and takes/returns a string.
type Pipeline struct {
	cfg      Config
	acronyms *acronymFuser
	grammar  *grammarCorrector
}

// New builds a Pipeline. personalAcronyms and personalWords are sourced
// from the user dictionary and merged into the curated acronym set and
// base spelling dictionary respectively.
func New(cfg Config, personalAcronyms map[string]struct{}, personalWords []string) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		acronyms: newAcronymFuser(personalAcronyms),
		grammar:  newGrammarCorrector(personalWords),
	}
}

// RunPreview applies every enabled step except grammar correction, for
// latency.
func (p *Pipeline) RunPreview(text string) string {
	if p.cfg.EnableAcronyms {
		text = p.acronyms.process(text)
	}
	if p.cfg.EnablePunctuation {
		text = capitalizeFixup(text)
	}
	return text
}

// RunFinal applies the full configured pipeline: acronym fusion,
// capitalization/pronoun fixup, grammar/spell correction. Sanitization is
// applied separately via Sanitize once the target AppCategory is known.
func (p *Pipeline) RunFinal(text string) string {
	if p.cfg.EnableAcronyms {
		text = p.acronyms.process(text)
	}
	if p.cfg.EnablePunctuation {
		text = capitalizeFixup(text)
	}
	if p.cfg.EnableGrammar {
		text = p.grammar.process(text)
	}
	return text
}

// Sanitize runs the category-aware sanitization step. Always last; must
// run over already-post-processed text.
func (p *Pipeline) Sanitize(text string, category AppCategory) string {
	return sanitize(text, category)
}
