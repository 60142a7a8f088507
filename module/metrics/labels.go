package metrics

const (
	LabelResource = "resource"
	LabelAction   = "action"
	LabelReason   = "reason"
	LabelRole     = "role"
)

const (
	ResourceUndefined = "undefined"
	ResourceReceipt   = "receipt"
	ResourceAccount   = "account"
)
