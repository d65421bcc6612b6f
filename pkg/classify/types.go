package classify

// Category is a legal content category.
type Category string

const (
	Jurisprudence Category = "jurisprudence"
	Legislation   Category = "legislation"
	Doctrine      Category = "doctrine"
	Procedure     Category = "procedure"
	Actualite     Category = "actualite"
)

// Domain is a branch of law.
type Domain string

const (
	Civil         Domain = "civil"
	Penal         Domain = "penal"
	Commercial    Domain = "commercial"
	Administratif Domain = "administratif"
	Social        Domain = "social"
	Foncier       Domain = "foncier"
)

// SignalSource identifies which detector produced a signal.
type SignalSource string

const (
	SourceStructure SignalSource = "structure"
	SourceKeywords  SignalSource = "keywords"
	SourceLLM       SignalSource = "llm"
)

// Signal is one independent estimate of a content's category and domain.
type Signal struct {
	Source     SignalSource `json:"source"`
	Category   Category     `json:"category,omitempty"`
	Domain     Domain       `json:"domain,omitempty"`
	Confidence float64      `json:"confidence"`
	Evidence   []string     `json:"evidence,omitempty"`
}

// Input describes one piece of content to classify.
type Input struct {
	// Source identifies where the content came from (site or feed identity).
	Source string
	// URL of the content, used by the structure signal and the cache key.
	URL string
	// Text is the raw content.
	Text string
	// Breadcrumbs are site-structure hints, outermost first.
	Breadcrumbs []string
}

// Options tune one classification call.
type Options struct {
	// ForceLLM always collects the LLM signal, regardless of cheap-signal
	// confidence, and bypasses cache reads.
	ForceLLM bool
	// SkipCache disables both cache read and write.
	SkipCache bool
}

// Result is the fused classification outcome. Immutable once produced;
// a fresh classification supersedes it in the cache.
type Result struct {
	PrimaryCategory    Category `json:"primary_category"`
	Domain             Domain   `json:"domain,omitempty"`
	DocumentNature     string   `json:"document_nature,omitempty"`
	Confidence         float64  `json:"confidence"`
	Signals            []Signal `json:"signals"`
	RequiresValidation bool     `json:"requires_validation"`
	ValidationReason   string   `json:"validation_reason,omitempty"`
	FromCache          bool     `json:"-"`
}

// BatchResult pairs one batch item with its outcome. A failed item never
// affects its siblings.
type BatchResult struct {
	Index  int
	Result *Result
	Err    error
}
