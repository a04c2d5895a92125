package didexchange

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const connectionSigExpTime = 10 * 60 * 60

var ErrSignature = errors.New("connection signature")

// Signer signs data with the private key of the verkey.
type Signer interface {
	Sign(verkey string, data []byte) ([]byte, error)
}

// Verifier verifies the signature of the verkey.
type Verifier interface {
	Verify(verkey string, data, signature []byte) error
}

// Sign signs the response connection with the verkey. The signed data is the
// 8 byte big endian timestamp followed by the connection JSON.
func (r *Response) Sign(verkey string, s Signer) (err error) {
	defer err2.Handle(&err, "sign connection")

	connectionJSON := try.To1(json.Marshal(r.Connection))
	data := stamp(connectionJSON, time.Now())
	signature := try.To1(s.Sign(verkey, data))

	r.ConnectionSignature = &ConnectionSignature{
		Type:       pltype.SignatureEd25519,
		SignedData: base64.URLEncoding.EncodeToString(data),
		SignVerKey: verkey,
		Signature:  base64.URLEncoding.EncodeToString(signature),
	}
	return nil
}

// Verify verifies the connection signature against the expected verkey,
// which is the one our invitation was sent to, and fills the Connection.
func (r *Response) Verify(verkey string, v Verifier) (err error) {
	defer err2.Handle(&err, "verify connection signature")

	cs := r.ConnectionSignature
	if cs == nil {
		return fmt.Errorf("%w: missing", ErrSignature)
	}
	if cs.SignVerKey != verkey {
		return fmt.Errorf("%w: signer %s is not %s", ErrSignature, cs.SignVerKey, verkey)
	}
	data := try.To1(utils.DecodeB64(cs.SignedData))
	if len(data) <= 8 {
		return fmt.Errorf("%w: missing or invalid signature data", ErrSignature)
	}
	signature := try.To1(utils.DecodeB64(cs.Signature))
	try.To(v.Verify(verkey, data, signature))

	if timestamp, ok := verifyTimestamp(data, time.Now()); !ok {
		// some agents do not fill it at all
		glog.Warningln("connection signature timestamp is invalid:", timestamp)
	}

	var conn Connection
	try.To(json.Unmarshal(data[8:], &conn))
	r.Connection = &conn
	return nil
}

func stamp(src []byte, now time.Time) []byte {
	data := make([]byte, 8+len(src))
	binary.BigEndian.PutUint64(data[0:], uint64(now.Unix()))
	copy(data[8:], src)
	return data
}

// verifyTimestamp tries big endian first and then little endian, which some
// implementations use.
func verifyTimestamp(data []byte, now time.Time) (timestamp int64, ok bool) {
	valid := func(ts int64) bool {
		diff := now.Unix() - ts
		return diff >= 0 && diff <= connectionSigExpTime
	}
	timestamp = int64(binary.BigEndian.Uint64(data))
	if valid(timestamp) {
		return timestamp, true
	}
	timestamp = int64(binary.LittleEndian.Uint64(data))
	return timestamp, valid(timestamp)
}
