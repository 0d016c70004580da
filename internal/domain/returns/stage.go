package returns

// Stage is a state of the return pipeline
type Stage string

const (
	StageValidating        Stage = "validating"
	StageAuthenticating    Stage = "authenticating"
	StageRequestingLabel   Stage = "requesting_label"
	StageComposingDocument Stage = "composing_document"
	StageSubmittingMail    Stage = "submitting_mail"
	StageAuditing          Stage = "auditing"
	StageDone              Stage = "done"
	StageFailed            Stage = "failed"
)

// IsTerminal reports whether no transition leaves the stage
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

// Title is the human-readable stage name used in audit events
func (s Stage) Title() string {
	switch s {
	case StageValidating:
		return "Validation"
	case StageAuthenticating:
		return "Authentication"
	case StageRequestingLabel:
		return "Label creation"
	case StageComposingDocument:
		return "Document composition"
	case StageSubmittingMail:
		return "Mail submission"
	case StageAuditing:
		return "Audit"
	case StageDone:
		return "Done"
	default:
		return "Pipeline"
	}
}
