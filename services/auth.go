package services

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"biomed-search/models"
)

// ErrEmailNotVerified wird zurückgegeben, wenn der Identity-Provider die E-Mail-Adresse nicht bestätigt.
var ErrEmailNotVerified = errors.New("email address is not verified")

// OAuthSettings konfiguriert den Identity-Provider.
type OAuthSettings struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// UserInfo enthält die genutzten Felder der OIDC-Userinfo-Antwort.
type UserInfo struct {
	Subject           string `json:"-"`
	Email             string `json:"-"`
	EmailVerified     bool   `json:"-"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
}

// DisplayName wählt den besten verfügbaren Benutzernamen.
func (u *UserInfo) DisplayName() string {
	switch {
	case u.PreferredUsername != "":
		return u.PreferredUsername
	case u.Name != "":
		return u.Name
	default:
		name, _, _ := strings.Cut(u.Email, "@")
		return name
	}
}

// AuthService führt den OAuth2-Authorization-Code-Flow aus und löst API-Tokens zu Usern auf.
type AuthService struct {
	settings   OAuthSettings
	db         *gorm.DB
	httpClient *http.Client
	logger     *zap.Logger

	mu       sync.Mutex
	provider *oidc.Provider
}

func NewAuthService(settings OAuthSettings, db *gorm.DB, logger *zap.Logger) *AuthService {
	return &AuthService{
		settings:   settings,
		db:         db,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// Enabled meldet, ob Client-Zugangsdaten konfiguriert sind.
func (s *AuthService) Enabled() bool {
	return s.settings.ClientID != "" && s.settings.ClientSecret != ""
}

// discover führt die OIDC-Discovery einmal aus und cacht den Provider. Nach einem Fehler wird beim nächsten Aufruf erneut gesucht.
func (s *AuthService) discover(ctx context.Context) (*oidc.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider != nil {
		return s.provider, nil
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, s.httpClient), s.settings.Issuer)
	if err != nil {
		return nil, errors.Wrap(err, "AuthService.discover")
	}
	if provider.UserInfoEndpoint() == "" {
		return nil, errors.New("AuthService.discover: provider has no userinfo endpoint")
	}
	s.provider = provider
	return provider, nil
}

func (s *AuthService) oauthConfig(ctx context.Context) (*oauth2.Config, *oidc.Provider, error) {
	provider, err := s.discover(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &oauth2.Config{
		ClientID:     s.settings.ClientID,
		ClientSecret: s.settings.ClientSecret,
		RedirectURL:  s.settings.RedirectURL,
		Scopes:       s.settings.Scopes,
		Endpoint:     provider.Endpoint(),
	}, provider, nil
}

// AuthCodeURL liefert die Provider-URL, auf die der Browser umgeleitet wird.
func (s *AuthService) AuthCodeURL(ctx context.Context, state string) (string, error) {
	conf, _, err := s.oauthConfig(ctx)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(state), nil
}

// Exchange tauscht den Authorization-Code gegen einen Token und holt das Profil des Users.
func (s *AuthService) Exchange(ctx context.Context, code string) (*UserInfo, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Exchange")
	defer span.End()

	conf, provider, err := s.oauthConfig(ctx)
	if err != nil {
		return nil, err
	}
	ctx = oidc.ClientContext(ctx, s.httpClient)

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "AuthService.Exchange: token")
	}

	profile, err := provider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "AuthService.Exchange: userinfo")
	}
	info := UserInfo{Subject: profile.Subject, Email: profile.Email, EmailVerified: profile.EmailVerified}
	if err := profile.Claims(&info); err != nil {
		return nil, errors.Wrap(err, "AuthService.Exchange: userinfo claims")
	}
	span.SetAttributes(attribute.String("subject", info.Subject))
	return &info, nil
}

// Login schließt den Callback ab: Code tauschen, bestätigte E-Mail verlangen, User anlegen oder aktualisieren.
func (s *AuthService) Login(ctx context.Context, code string) (*models.User, error) {
	info, err := s.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if info.Email == "" || !info.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	user, err := s.UpsertUser(ctx, info)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthenticated
	}
	s.logger.Info("User logged in", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// UpsertUser legt den User beim ersten Login an und aktualisiert danach den Benutzernamen.
func (s *AuthService) UpsertUser(ctx context.Context, info *UserInfo) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(info.Email))
	user := models.User{Email: email, Username: info.DisplayName(), Role: models.RoleUser, IsActive: true}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "updated_at"}),
		}).Create(&user).Error
		if err != nil {
			return err
		}
		// Neu lesen, damit Rolle und Aktiv-Flag aus der gespeicherten Zeile kommen und nicht aus den Insert-Defaults.
		return tx.Where("email = ?", email).First(&user).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "AuthService.UpsertUser")
	}
	return &user, nil
}

// UserByID lädt einen aktiven User.
func (s *AuthService) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "AuthService.UserByID")
	}
	return &user, nil
}

// UserByToken löst einen Bearer-Token zu einem aktiven User auf.
func (s *AuthService) UserByToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where("api_token = ? AND is_active = ?", token, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "AuthService.UserByToken")
	}
	return &user, nil
}

// EnsureAPIToken liefert den API-Token des Users und erzeugt einen, falls noch keiner existiert.
func (s *AuthService) EnsureAPIToken(ctx context.Context, userID uint) (string, error) {
	var token string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnauthenticated
			}
			return err
		}
		if user.APIToken != nil && *user.APIToken != "" {
			token = *user.APIToken
			return nil
		}
		generated, err := RandomToken(32)
		if err != nil {
			return err
		}
		if err := tx.Model(&user).Update("api_token", generated).Error; err != nil {
			return err
		}
		token = generated
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return "", err
		}
		return "", errors.Wrap(err, "AuthService.EnsureAPIToken")
	}
	return token, nil
}
