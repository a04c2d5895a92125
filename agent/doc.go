/*
Package agent holds the framework the DIDComm protocols run on. The agent
package is empty itself. All the functionality is inside sub-packages:

	agency     store-and-forward mailbox agency, its HTTP API and client
	aries      closed registry of the known Aries messages
	bus        notifications of the protocol state changes
	comm       HTTP transport of the envelopes
	didcomm    DIDComm message header and message type parsing
	pairwise   pairwise agents, their mailboxes and sending
	pltype     protocol families and message types
	psm        persistent registries of the protocol state machines
	sec        encryption envelope on the aries-framework-go packers
	ssi        Indy collaborators of the credential protocols
	storage    encrypted bolt storage, KMS and DIDs
	utils      settings and small helpers
	vdr        did:key and did:peer resolution
*/
package agent
