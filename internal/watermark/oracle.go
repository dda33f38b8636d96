package watermark

import (
	"context"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/attack"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/codec"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/session"
)

// Oracle decides whether a watermark is still detectable in the live store.
type Oracle struct {
	sess *session.Session
}

// NewOracle creates an Oracle reading from the session store.
func NewOracle(sess *session.Session) *Oracle {
	return &Oracle{sess: sess}
}

// Verify reports whether any surviving carrier still detects under key.
// Deleted carriers are skipped; an empty or fully deleted set is false.
func (o *Oracle) Verify(ctx context.Context, carriers []graph.ID, key codec.Key) (bool, error) {
	detected, err := o.verify(ctx, carriers, key)
	o.sess.Metrics.ObserveVerification(detected, err)
	return detected, err
}

func (o *Oracle) verify(ctx context.Context, carriers []graph.ID, key codec.Key) (bool, error) {
	if len(carriers) == 0 {
		return false, nil
	}
	docs, err := o.sess.Store.ReadDocuments(ctx, carriers)
	if err != nil {
		return false, fault.Store("verify.read_documents", err)
	}
	for _, doc := range docs {
		if codec.Detect(doc.Fields, key) {
			o.sess.Logger.Debug("watermark detected", "carrier", doc.ID, "survivors", len(docs))
			return true, nil
		}
	}
	o.sess.Logger.Debug("watermark not detected", "carriers", len(carriers), "survivors", len(docs))
	return false, nil
}

// VerifyFunc binds carriers and key into the check run by attack loops.
func (o *Oracle) VerifyFunc(carriers []graph.ID, key codec.Key) attack.VerifyFunc {
	return func(ctx context.Context) (bool, error) {
		return o.Verify(ctx, carriers, key)
	}
}
