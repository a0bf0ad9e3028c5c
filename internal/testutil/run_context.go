package testutil

import (
	"context"

	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/logging"
)

// DefaultKey is the session key used by NewRunContext.
var DefaultKey = core.SessionKey{AppName: "pt_agent", UserID: "demo_client", SessionID: "session_1"}

// NewRunContext builds a RunContext for DefaultKey with a buffered emit
// channel and no resume channel, so emitters never block on persistence.
// The session is created in stores.Sessions when set.
func NewRunContext(userText string, stores core.Stores) (*core.RunContext, chan core.Event) {
	emit := make(chan core.Event, 64)

	sess := core.NewSession(DefaultKey)
	if stores.Sessions != nil {
		if created, err := stores.Sessions.Create(DefaultKey); err == nil {
			sess = created
		}
	}

	rc := core.NewRunContext(
		context.Background(), DefaultKey, core.NewID(),
		core.AgentInfo{Name: DefaultKey.AppName, Type: "model"},
		core.NewTextContent(core.RoleUser, userText),
		emit, nil, sess, stores, nil, logging.NoOpLogger{},
	)

	return rc, emit
}
