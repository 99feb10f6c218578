package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	config "github.com/ankitjain28/gramflow/configs"
	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/ankitjain28/gramflow/internal/transfer"
	"github.com/ankitjain28/gramflow/pkg/utils"
	"golang.org/x/oauth2"
)

const (
	instagramAuthURL  = "https://www.instagram.com/oauth/authorize"
	instagramTokenURL = "https://api.instagram.com/oauth/access_token"
	instagramGraphURL = "https://graph.instagram.com"
	graphVersion      = "v21.0"
)

// IgError is a decoded Instagram graph error. Code 190 means the access
// token was rejected, which must surface as an expired account rather than a
// confusing publish failure.
type IgError struct {
	Code      int
	Message   string
	Transient bool
}

func (e *IgError) Error() string {
	return fmt.Sprintf("instagram error %d: %s", e.Code, e.Message)
}

func (e *IgError) IsAuthError() bool { return e.Code == 190 }

type InstagramService interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*transfer.InstagramToken, error)
	GetUserInfo(ctx context.Context, accessToken string) (*transfer.InstagramUserInfo, error)
	RefreshToken(ctx context.Context, accessToken string) (*transfer.InstagramToken, error)
	PublishPost(ctx context.Context, post *models.Post, media []*models.PostMedia, account *models.InstagramAccount) (string, error)
}

type instagramService struct {
	cfg   config.Config
	oauth *oauth2.Config
}

func NewInstagramService(cfg config.Config) InstagramService {
	return &instagramService{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.InstagramClientID,
			ClientSecret: cfg.InstagramClientSecret,
			RedirectURL:  cfg.InstagramRedirectURI,
			Scopes:       []string{"instagram_business_basic", "instagram_business_content_publish"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  instagramAuthURL,
				TokenURL: instagramTokenURL,
			},
		},
	}
}

func (s *instagramService) AuthURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a long-lived token: the
// oauth2 exchange yields a short-lived token which is then upgraded through
// the ig_exchange_token endpoint.
func (s *instagramService) ExchangeCode(ctx context.Context, code string) (*transfer.InstagramToken, error) {
	shortToken, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	url := fmt.Sprintf(
		"%s/access_token?grant_type=ig_exchange_token&client_secret=%s&access_token=%s",
		instagramGraphURL, s.cfg.InstagramClientSecret, shortToken.AccessToken,
	)

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := s.getJSON(ctx, url, &result); err != nil {
		return nil, fmt.Errorf("failed to get long-lived token: %w", err)
	}

	return &transfer.InstagramToken{
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(time.Second * time.Duration(result.ExpiresIn)),
	}, nil
}

func (s *instagramService) GetUserInfo(ctx context.Context, accessToken string) (*transfer.InstagramUserInfo, error) {
	url := fmt.Sprintf(
		"%s/me?fields=id,username,name,account_type,profile_picture_url&access_token=%s",
		instagramGraphURL, accessToken,
	)

	var userInfo transfer.InstagramUserInfo
	if err := s.getJSON(ctx, url, &userInfo); err != nil {
		return nil, err
	}
	return &userInfo, nil
}

func (s *instagramService) RefreshToken(ctx context.Context, accessToken string) (*transfer.InstagramToken, error) {
	url := fmt.Sprintf(
		"%s/refresh_access_token?grant_type=ig_refresh_token&access_token=%s",
		instagramGraphURL, accessToken,
	)

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := s.getJSON(ctx, url, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("no access token in refresh response")
	}

	return &transfer.InstagramToken{
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(time.Second * time.Duration(result.ExpiresIn)),
	}, nil
}

// PublishPost pushes the post's ordered media and caption through the graph
// container/publish flow and returns the platform post id. Media are sent in
// declared display order.
func (s *instagramService) PublishPost(ctx context.Context, post *models.Post, media []*models.PostMedia, account *models.InstagramAccount) (string, error) {
	accessToken, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to decrypt access token: %w", err)
	}

	if len(media) == 0 {
		return "", fmt.Errorf("no media to publish for post %d", post.ID)
	}

	var containerID string
	switch post.PostType {
	case models.PostTypeCarousel:
		containerID, err = s.createCarouselContainer(ctx, account.IgUserID, post.Caption, media, accessToken)
	case models.PostTypeReel:
		containerID, err = s.createContainer(ctx, account.IgUserID, map[string]interface{}{
			"media_type":   "REELS",
			"video_url":    media[0].PublicURL,
			"caption":      post.Caption,
			"access_token": accessToken,
		})
	case models.PostTypeStory:
		payload := map[string]interface{}{
			"media_type":   "STORIES",
			"access_token": accessToken,
		}
		setMediaURL(payload, media[0])
		containerID, err = s.createContainer(ctx, account.IgUserID, payload)
	case models.PostTypeFeed:
		payload := map[string]interface{}{
			"caption":      post.Caption,
			"access_token": accessToken,
		}
		setMediaURL(payload, media[0])
		containerID, err = s.createContainer(ctx, account.IgUserID, payload)
	default:
		return "", fmt.Errorf("unsupported post type %q", post.PostType)
	}
	if err != nil {
		return "", err
	}

	return s.publishContainer(ctx, account.IgUserID, containerID, accessToken)
}

func setMediaURL(payload map[string]interface{}, pm *models.PostMedia) {
	if pm.MediaType == models.MediaTypeVideo {
		payload["video_url"] = pm.PublicURL
		payload["media_type"] = "VIDEO"
	} else {
		payload["image_url"] = pm.PublicURL
	}
}

func (s *instagramService) createCarouselContainer(ctx context.Context, igUserID, caption string, media []*models.PostMedia, accessToken string) (string, error) {
	childIDs := make([]string, 0, len(media))
	for _, pm := range media {
		payload := map[string]interface{}{
			"is_carousel_item": true,
			"access_token":     accessToken,
		}
		setMediaURL(payload, pm)

		childID, err := s.createContainer(ctx, igUserID, payload)
		if err != nil {
			return "", fmt.Errorf("carousel item %d: %w", pm.DisplayOrder, err)
		}
		childIDs = append(childIDs, childID)
	}

	return s.createContainer(ctx, igUserID, map[string]interface{}{
		"media_type":   "CAROUSEL",
		"caption":      caption,
		"children":     childIDs,
		"access_token": accessToken,
	})
}

func (s *instagramService) createContainer(ctx context.Context, igUserID string, payload map[string]interface{}) (string, error) {
	url := fmt.Sprintf("%s/%s/%s/media", instagramGraphURL, graphVersion, igUserID)

	var result struct {
		ID string `json:"id"`
	}
	if err := s.postJSON(ctx, url, payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("no container id returned from Instagram")
	}
	return result.ID, nil
}

func (s *instagramService) publishContainer(ctx context.Context, igUserID, containerID, accessToken string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s/media_publish", instagramGraphURL, graphVersion, igUserID)
	payload := map[string]interface{}{
		"creation_id":  containerID,
		"access_token": accessToken,
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := s.postJSON(ctx, url, payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("no media id returned from Instagram")
	}
	return result.ID, nil
}

func (s *instagramService) postJSON(ctx context.Context, url string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return s.do(req, out)
}

func (s *instagramService) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	return s.do(req, out)
}

func (s *instagramService) do(req *http.Request, out interface{}) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var igErr transfer.InstagramErrorResponse
		if err := json.Unmarshal(respBody, &igErr); err == nil && igErr.Error.Message != "" {
			return &IgError{
				Code:      igErr.Error.Code,
				Message:   igErr.Error.Message,
				Transient: igErr.Error.IsTransient,
			}
		}
		return fmt.Errorf("unexpected status code from Instagram: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	return nil
}
