// Package pltype holds the message type constants of the supported Aries
// protocol families.
package pltype

// Message type prefixes
const (
	Aries       = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec" // legacy prefix used by default
	DIDOrgAries = "https://didcomm.org"                 // newer prefix
)

// Versions
const (
	V1  = "1.0"
	V09 = "0.9"
)

// Attachment IDs of the Indy payloads
const (
	LibindyCredOfferID           = "libindy-cred-offer-0"
	LibindyCredRequestID         = "libindy-cred-request-0"
	LibindyCredID                = "libindy-cred-0"
	LibindyRequestPresentationID = "libindy-request-presentation-0"
	LibindyPresentationID        = "libindy-presentation-0"
	OutOfBandRequestID           = "request-0"
)

// Routing protocol constants
const (
	ProtocolRouting = "routing"
	HandlerForward  = "forward"
	RoutingForward  = Aries + "/" + ProtocolRouting + "/" + V1 + "/" + HandlerForward
)

// Notification and report-problem
const (
	ProtocolNotification  = "notification"
	ProtocolReportProblem = "report-problem"
	HandlerProblemReport  = "problem-report"
	HandlerAck            = "ack"

	NotificationAck           = Aries + "/" + ProtocolNotification + "/" + V1 + "/" + HandlerAck
	ReportProblemReport       = Aries + "/" + ProtocolReportProblem + "/" + V1 + "/" + HandlerProblemReport
	NotificationProblemReport = Aries + "/" + ProtocolNotification + "/" + V1 + "/" + HandlerProblemReport
)

// DID exchange aka Connection related constants
const (
	ProtocolConnection          = "connections"
	HandlerInvitation           = "invitation"
	HandlerRequest              = "request"
	HandlerResponse             = "response"
	HandlerConnProblemReport    = "problem_report"
	ProtocolSignature           = "signature"
	HandlerSignatureEd25519     = "ed25519Sha512_single"
	ConnectionProtocolReference = ProtocolConnection + "/" + V1

	Connection              = Aries + "/" + ProtocolConnection + "/" + V1
	ConnectionInvitation    = Connection + "/" + HandlerInvitation
	ConnectionRequest       = Connection + "/" + HandlerRequest
	ConnectionResponse      = Connection + "/" + HandlerResponse
	ConnectionProblemReport = Connection + "/" + HandlerConnProblemReport
	SignatureEd25519        = Aries + "/" + ProtocolSignature + "/" + V1 + "/" + HandlerSignatureEd25519
)

// Trust ping
const (
	ProtocolTrustPing   = "trust_ping"
	HandlerPing         = "ping"
	HandlerPingResponse = "ping_response"

	TrustPingPing     = Aries + "/" + ProtocolTrustPing + "/" + V1 + "/" + HandlerPing
	TrustPingResponse = Aries + "/" + ProtocolTrustPing + "/" + V1 + "/" + HandlerPingResponse
)

// Issue Credential protocol constants
const (
	ProtocolIssueCredential       = "issue-credential"
	HandlerIssueCredentialPropose = "propose-credential"
	HandlerIssueCredentialOffer   = "offer-credential"
	HandlerIssueCredentialRequest = "request-credential"
	HandlerIssueCredentialIssue   = "issue-credential"
	ObjectTypeCredentialPreview   = "credential-preview"

	IssueCredential                  = Aries + "/" + ProtocolIssueCredential + "/" + V1
	IssueCredentialPropose           = IssueCredential + "/" + HandlerIssueCredentialPropose
	IssueCredentialOffer             = IssueCredential + "/" + HandlerIssueCredentialOffer
	IssueCredentialRequest           = IssueCredential + "/" + HandlerIssueCredentialRequest
	IssueCredentialIssue             = IssueCredential + "/" + HandlerIssueCredentialIssue
	IssueCredentialACK               = IssueCredential + "/" + HandlerAck
	IssueCredentialProblemReport     = IssueCredential + "/" + HandlerProblemReport
	IssueCredentialCredentialPreview = IssueCredential + "/" + ObjectTypeCredentialPreview
)

// Present proof protocol constants
const (
	ProtocolPresentProof       = "present-proof"
	HandlerPresentProofPropose = "propose-presentation"
	HandlerPresentProofRequest = "request-presentation"
	HandlerPresentProofPresent = "presentation"
	ObjectTypePresentationPrev = "presentation-preview"

	PresentProof                    = Aries + "/" + ProtocolPresentProof + "/" + V1
	PresentProofPropose             = PresentProof + "/" + HandlerPresentProofPropose
	PresentProofRequest             = PresentProof + "/" + HandlerPresentProofRequest
	PresentProofPresentation        = PresentProof + "/" + HandlerPresentProofPresent
	PresentProofACK                 = PresentProof + "/" + HandlerAck
	PresentProofProblemReport       = PresentProof + "/" + HandlerProblemReport
	PresentationPreviewObj          = PresentProof + "/" + ObjectTypePresentationPrev
	PresentProofProtocolDescription = ProtocolPresentProof + "/" + V1
)

// Discover features
const (
	ProtocolDiscoverFeatures = "discover-features"
	HandlerQuery             = "query"
	HandlerDisclose          = "disclose"

	DiscoverFeaturesQuery    = Aries + "/" + ProtocolDiscoverFeatures + "/" + V1 + "/" + HandlerQuery
	DiscoverFeaturesDisclose = Aries + "/" + ProtocolDiscoverFeatures + "/" + V1 + "/" + HandlerDisclose
)

// Basic message
const (
	ProtocolBasicMessage = "basicmessage"
	HandlerMessage       = "message"

	BasicMessageSend = Aries + "/" + ProtocolBasicMessage + "/" + V1 + "/" + HandlerMessage
)

// Question answer and committed answer
const (
	ProtocolQuestionAnswer  = "questionanswer"
	ProtocolCommittedAnswer = "committedanswer"
	HandlerQuestion         = "question"
	HandlerAnswer           = "answer"

	QuestionAnswerQuestion  = Aries + "/" + ProtocolQuestionAnswer + "/" + V1 + "/" + HandlerQuestion
	QuestionAnswerAnswer    = Aries + "/" + ProtocolQuestionAnswer + "/" + V1 + "/" + HandlerAnswer
	CommittedAnswerQuestion = Aries + "/" + ProtocolCommittedAnswer + "/" + V1 + "/" + HandlerQuestion
	CommittedAnswerAnswer   = Aries + "/" + ProtocolCommittedAnswer + "/" + V1 + "/" + HandlerAnswer
)

// Out-of-band, these are only known with the newer prefix
const (
	ProtocolOutOfBand             = "out-of-band"
	HandlerHandshakeReuse         = "handshake-reuse"
	HandlerHandshakeReuseAccepted = "handshake-reuse-accepted"

	OutOfBand                       = DIDOrgAries + "/" + ProtocolOutOfBand + "/" + V1
	OutOfBandInvitation             = OutOfBand + "/" + HandlerInvitation
	OutOfBandHandshakeReuse         = OutOfBand + "/" + HandlerHandshakeReuse
	OutOfBandHandshakeReuseAccepted = OutOfBand + "/" + HandlerHandshakeReuseAccepted
)

// Invite for action
const (
	ProtocolInviteAction = "invite-action"
	HandlerInvite        = "invite"

	InviteAction              = DIDOrgAries + "/" + ProtocolInviteAction + "/" + V09
	InviteActionInvite        = InviteAction + "/" + HandlerInvite
	InviteActionAck           = InviteAction + "/" + HandlerAck
	InviteActionProblemReport = InviteAction + "/" + HandlerProblemReport
)
