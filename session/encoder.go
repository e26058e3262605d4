package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentSchemaVersion is written into every encoded session. Decoding
// accepts any version in [1, CurrentSchemaVersion]; stores migrate old blobs
// forward on read.
const CurrentSchemaVersion = 1

// ErrCorruptSession marks blobs that fail structural validation.
var ErrCorruptSession = errors.New("corrupt session blob")

// Encode serializes a session for storage.
func Encode(sess *Session) ([]byte, error) {
	if sess == nil {
		return nil, errors.New("nil session")
	}
	if sess.SessionID == "" || sess.SubjectID == "" {
		return nil, fmt.Errorf("%w: missing identity fields", ErrCorruptSession)
	}

	out := sess.Clone()
	out.SchemaVersion = CurrentSchemaVersion
	return json.Marshal(out)
}

// Decode deserializes and validates a stored session blob.
func Decode(data []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if sess.SchemaVersion < 1 || sess.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: unknown schema version %d", ErrCorruptSession, sess.SchemaVersion)
	}
	if sess.SessionID == "" || sess.SubjectID == "" || sess.ExpiresAt == 0 {
		return nil, fmt.Errorf("%w: missing required fields", ErrCorruptSession)
	}
	return &sess, nil
}
