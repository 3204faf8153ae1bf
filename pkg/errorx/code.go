package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009
	TooManyRequests  Code = 100010

	// Auth codes
	StolenDetected   Code = 200001
	TokenExpired     Code = 200002
	InvalidSignature Code = 200003
	InvalidNonce     Code = 200004

	// Marketplace codes
	AlreadyPending      Code = 300001
	MintFailed          Code = 300002
	ChainUnavailable    Code = 300003
	TransactionNotFound Code = 300004
	TransactionFailed   Code = 300005
	AlreadyProcessed    Code = 300006
	SelfPurchase        Code = 300007
	AlreadyListed       Code = 300008
	NotMintedOrApproved Code = 300009
)
