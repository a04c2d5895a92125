// Package discover implements the messages of the Aries discover features
// protocol (RFC 0031) and the registry of the protocols we support.
package discover

import (
	"strings"

	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/decorator"
)

type Query struct {
	didcomm.Header
	Query   string `json:"query"`
	Comment string `json:"comment,omitempty"`
}

type Disclose struct {
	didcomm.Header
	Protocols []ProtocolDescriptor `json:"protocols"`
}

type ProtocolDescriptor struct {
	PID   string   `json:"pid"`
	Roles []string `json:"roles,omitempty"`
}

// NewQuery returns a query. Empty query asks everything.
func NewQuery(query, comment string) *Query {
	if query == "" {
		query = "*"
	}
	q := &Query{
		Header:  didcomm.NewHeader(pltype.DiscoverFeaturesQuery),
		Query:   query,
		Comment: comment,
	}
	q.SetThread(&decorator.Thread{ID: q.ID()})
	return q
}

// NewDisclose answers the query with the protocols matching it.
func NewDisclose(q *Query) *Disclose {
	d := &Disclose{
		Header:    didcomm.NewHeader(pltype.DiscoverFeaturesDisclose),
		Protocols: Protocols(q.Query),
	}
	d.SetThread(&decorator.Thread{ID: didcomm.ThreadID(q)})
	return d
}

var supported = []string{
	pltype.Connection,
	pltype.Aries + "/" + pltype.ProtocolNotification + "/" + pltype.V1,
	pltype.Aries + "/" + pltype.ProtocolReportProblem + "/" + pltype.V1,
	pltype.Aries + "/" + pltype.ProtocolTrustPing + "/" + pltype.V1,
	pltype.IssueCredential,
	pltype.PresentProof,
	pltype.Aries + "/" + pltype.ProtocolDiscoverFeatures + "/" + pltype.V1,
	pltype.Aries + "/" + pltype.ProtocolBasicMessage + "/" + pltype.V1,
	pltype.Aries + "/" + pltype.ProtocolQuestionAnswer + "/" + pltype.V1,
	pltype.Aries + "/" + pltype.ProtocolCommittedAnswer + "/" + pltype.V1,
	pltype.OutOfBand,
	pltype.InviteAction,
}

// Protocols returns the supported protocols matching the query. A trailing
// '*' matches any suffix.
func Protocols(query string) []ProtocolDescriptor {
	prefix, wildcard := strings.CutSuffix(query, "*")
	protocols := make([]ProtocolDescriptor, 0, len(supported))
	for _, pid := range supported {
		if (wildcard && strings.HasPrefix(pid, prefix)) || pid == query {
			protocols = append(protocols, ProtocolDescriptor{PID: pid})
		}
	}
	return protocols
}
