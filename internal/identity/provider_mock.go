// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package identity

import (
	"context"

	"github.com/toeirei/studentdir/internal/security"
)

// MockProvider forwards to Overwrites when set, else to Base. Calling a
// method with neither panics.
type MockProvider struct {
	Base       Provider
	Overwrites MockProviderOverwrites
}

type MockProviderOverwrites struct {
	Subscribe            func(fn Listener) func()
	AwaitSessionRestored func(ctx context.Context) error
	CurrentIdentity      func() *Identity
	SignIn               func(ctx context.Context, email string, password security.Secret) (Session, error)
	SignUp               func(ctx context.Context, email string, password security.Secret) (Identity, error)
	SignOut              func(ctx context.Context) error
	Resume               func(ctx context.Context, email string, token security.Secret) (Identity, error)
}

var _ Provider = (*MockProvider)(nil)

// provider := NewMockProvider(nil, MockProviderOverwrites{ /* overwrite Provider methods here... */ })
func NewMockProvider(base Provider, overwrites MockProviderOverwrites) *MockProvider {
	return &MockProvider{Base: base, Overwrites: overwrites}
}

func (m *MockProvider) Subscribe(fn Listener) func() {
	if m.Overwrites.Subscribe != nil {
		return m.Overwrites.Subscribe(fn)
	} else if m.Base != nil {
		return m.Base.Subscribe(fn)
	}
	panic("MockProvider.Subscribe not implemented")
}
func (m *MockProvider) AwaitSessionRestored(ctx context.Context) error {
	if m.Overwrites.AwaitSessionRestored != nil {
		return m.Overwrites.AwaitSessionRestored(ctx)
	} else if m.Base != nil {
		return m.Base.AwaitSessionRestored(ctx)
	}
	panic("MockProvider.AwaitSessionRestored not implemented")
}
func (m *MockProvider) CurrentIdentity() *Identity {
	if m.Overwrites.CurrentIdentity != nil {
		return m.Overwrites.CurrentIdentity()
	} else if m.Base != nil {
		return m.Base.CurrentIdentity()
	}
	panic("MockProvider.CurrentIdentity not implemented")
}
func (m *MockProvider) SignIn(ctx context.Context, email string, password security.Secret) (Session, error) {
	if m.Overwrites.SignIn != nil {
		return m.Overwrites.SignIn(ctx, email, password)
	} else if m.Base != nil {
		return m.Base.SignIn(ctx, email, password)
	}
	panic("MockProvider.SignIn not implemented")
}
func (m *MockProvider) SignUp(ctx context.Context, email string, password security.Secret) (Identity, error) {
	if m.Overwrites.SignUp != nil {
		return m.Overwrites.SignUp(ctx, email, password)
	} else if m.Base != nil {
		return m.Base.SignUp(ctx, email, password)
	}
	panic("MockProvider.SignUp not implemented")
}
func (m *MockProvider) SignOut(ctx context.Context) error {
	if m.Overwrites.SignOut != nil {
		return m.Overwrites.SignOut(ctx)
	} else if m.Base != nil {
		return m.Base.SignOut(ctx)
	}
	panic("MockProvider.SignOut not implemented")
}
func (m *MockProvider) Resume(ctx context.Context, email string, token security.Secret) (Identity, error) {
	if m.Overwrites.Resume != nil {
		return m.Overwrites.Resume(ctx, email, token)
	} else if m.Base != nil {
		return m.Base.Resume(ctx, email, token)
	}
	panic("MockProvider.Resume not implemented")
}
