package kafka

// Topic constants.
const (
	TopicAuditOutcomes          = "audit.outcomes"
	TopicDeadLetterAuditOutcome = "dead_letter.audit_outcomes"
)
