package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
	"github.com/aussiebroadwan/grimoire/internal/auth/metrics"
	"github.com/aussiebroadwan/grimoire/internal/auth/store"
	"github.com/aussiebroadwan/grimoire/pkg/slogx"
)

// TokenService runs the refresh rotation protocol on top of an Issuer and a
// revocation store.
type TokenService struct {
	Issuer  *Issuer
	Users   store.Users
	Tokens  store.RefreshTokens
	Metrics *metrics.Metrics
}

// IssuePair mints an access and refresh token for u and persists the refresh
// record. Used after register and login.
func (s *TokenService) IssuePair(ctx context.Context, u domain.User, reason string) (*domain.TokenPair, error) {
	refresh, err := s.Issuer.IssueRefresh(u.ID)
	if err != nil {
		return nil, err
	}

	if err := s.Tokens.CreateRefreshToken(ctx, domain.RefreshToken{
		TokenID:   refresh.TokenID,
		UserID:    u.ID,
		ExpiresAt: refresh.ExpiresAt,
	}); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	access, _, err := s.Issuer.IssueAccess(u)
	if err != nil {
		return nil, err
	}

	s.Metrics.TokensIssued(reason)
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		ExpiresIn:    s.Issuer.AccessTTL(),
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// retired and linked to its replacement in one conditional store call, so
// of any number of concurrent attempts with the same token exactly one wins.
//
// Credential problems of any kind return ErrUnauthorized. Store failures are
// returned wrapped and must not be reported as unauthorized.
func (s *TokenService) Refresh(ctx context.Context, presented string) (*domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	subject, err := s.Issuer.VerifyRefresh(presented)
	if err != nil {
		log.Debug("refresh token verification failed", "err", err)
		return nil, ErrUnauthorized
	}

	user, err := s.Users.GetUserByID(ctx, subject.SubjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("refresh for unknown user", "user_id", subject.SubjectID)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	next, err := s.Issuer.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}

	err = s.Tokens.RotateRefreshToken(ctx, subject.TokenID, domain.RefreshToken{
		TokenID:   next.TokenID,
		UserID:    user.ID,
		ExpiresAt: next.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			s.Metrics.ReuseRejected()
			log.Warn("refresh token not active",
				"user_id", user.ID,
				"token_id", subject.TokenID,
			)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	access, _, err := s.Issuer.IssueAccess(user)
	if err != nil {
		return nil, err
	}

	s.Metrics.RotationSucceeded()
	s.Metrics.TokensIssued(metrics.ReasonRefresh)
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: next.Token,
		ExpiresIn:    s.Issuer.AccessTTL(),
	}, nil
}

// Logout revokes the presented refresh token. A token that is invalid or no
// longer active is ErrUnauthorized.
func (s *TokenService) Logout(ctx context.Context, presented string) error {
	log := slogx.FromContext(ctx)

	subject, err := s.Issuer.VerifyRefresh(presented)
	if err != nil {
		log.Debug("logout token verification failed", "err", err)
		return ErrUnauthorized
	}

	active, err := s.Tokens.IsRefreshTokenActive(ctx, subject.TokenID)
	if err != nil {
		return fmt.Errorf("check refresh token: %w", err)
	}
	if !active {
		return ErrUnauthorized
	}

	if err := s.Tokens.RevokeRefreshToken(ctx, subject.TokenID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	s.Metrics.LoggedOut()
	log.Info("refresh token revoked", "user_id", subject.SubjectID, "token_id", subject.TokenID)
	return nil
}

// LogoutAll revokes every active refresh token of the caller. Access tokens
// already issued stay valid until they expire.
func (s *TokenService) LogoutAll(ctx context.Context, p domain.Principal) (int64, error) {
	n, err := s.Tokens.RevokeAllUserRefreshTokens(ctx, p.UserID)
	if err != nil {
		return 0, fmt.Errorf("revoke all refresh tokens: %w", err)
	}

	s.Metrics.LoggedOutAll(n)
	slogx.FromContext(ctx).Info("all refresh tokens revoked", "user_id", p.UserID, "revoked", n)
	return n, nil
}

// Sessions lists the caller's refresh records, newest first.
func (s *TokenService) Sessions(ctx context.Context, p domain.Principal) ([]domain.RefreshToken, error) {
	list, err := s.Tokens.ListUserRefreshTokens(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list refresh tokens: %w", err)
	}
	return list, nil
}

func (s *TokenService) Stats(ctx context.Context) (domain.RefreshTokenStats, error) {
	stats, err := s.Tokens.RefreshTokenStats(ctx)
	if err != nil {
		return domain.RefreshTokenStats{}, fmt.Errorf("refresh token stats: %w", err)
	}
	return stats, nil
}
