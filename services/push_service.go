package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nutrilog/models"
	"nutrilog/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// snsAPI is the part of the SNS client push needs.
type snsAPI interface {
	CreatePlatformEndpoint(ctx context.Context, in *awssns.CreatePlatformEndpointInput, optFns ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, in *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

type PushService struct {
	devices         repository.DeviceRepository
	sns             snsAPI
	fcmPlatformArn  string
	apnsPlatformArn string
	log             *zap.Logger
}

func NewPushService(devices repository.DeviceRepository, cfg aws.Config, fcmArn, apnsArn string, log *zap.Logger) *PushService {
	return newPushService(devices, awssns.NewFromConfig(cfg), fcmArn, apnsArn, log)
}

func newPushService(devices repository.DeviceRepository, client snsAPI, fcmArn, apnsArn string, log *zap.Logger) *PushService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PushService{
		devices:         devices,
		sns:             client,
		fcmPlatformArn:  fcmArn,
		apnsPlatformArn: apnsArn,
		log:             log,
	}
}

type RegisterDeviceReq struct {
	Platform string `json:"platform" binding:"required"` // "android" | "ios"
	Token    string `json:"token" binding:"required"`
}

func tokenHash(tok string) string {
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])
}

func (p *PushService) platformArn(platform string) (string, error) {
	switch strings.ToLower(platform) {
	case "ios":
		if p.apnsPlatformArn != "" {
			return p.apnsPlatformArn, nil
		}
		fallthrough
	case "android":
		if p.fcmPlatformArn == "" {
			return "", errors.New("SNS_FCM_ARN not set")
		}
		return p.fcmPlatformArn, nil
	default:
		return "", fmt.Errorf("unknown platform %q: %w", platform, ErrInvalidInput)
	}
}

func (p *PushService) RegisterDevice(ctx context.Context, userID string, req RegisterDeviceReq) (*models.UserDevice, error) {
	appArn, err := p.platformArn(req.Platform)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%v: %w", err, ErrUpstream)
	}

	out, err := p.sns.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(appArn),
		Token:                  aws.String(req.Token),
	})
	if err != nil {
		p.log.Error("sns create endpoint failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("register device: %w", ErrUpstream)
	}

	dev, err := p.devices.Upsert(ctx, &models.UserDevice{
		UserID:      userID,
		Platform:    strings.ToLower(req.Platform),
		TokenHash:   tokenHash(req.Token),
		EndpointARN: aws.ToString(out.EndpointArn),
	})
	if err != nil {
		return nil, fmt.Errorf("save device: %w", err)
	}
	return dev, nil
}

// SetNotifications turns push on or off for every device of the user.
func (p *PushService) SetNotifications(ctx context.Context, userID string, enabled bool) error {
	if err := p.devices.SetEnabled(ctx, userID, enabled); err != nil {
		return fmt.Errorf("toggle notifications: %w", err)
	}
	return nil
}

// PushToUser publishes to every enabled endpoint and returns how many accepted it.
func (p *PushService) PushToUser(ctx context.Context, userID, title, body string, data map[string]string) (int, error) {
	endpoints, err := p.devices.ListEnabled(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list devices: %w", err)
	}
	if len(endpoints) == 0 {
		return 0, nil
	}

	gcm, _ := json.Marshal(map[string]any{
		"notification": map[string]string{
			"title": title,
			"body":  body,
		},
		"data": data,
	})
	// SNS expects each platform payload as an escaped JSON string.
	raw, _ := json.Marshal(map[string]string{
		"default": body,
		"GCM":     string(gcm),
	})

	sent := 0
	for _, d := range endpoints {
		_, err := p.sns.Publish(ctx, &awssns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(string(raw)),
			TargetArn:        aws.String(d.EndpointARN),
		})
		if err != nil {
			p.log.Warn("sns publish failed", zap.String("user_id", userID), zap.String("device_id", d.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

func (p *PushService) HasDevices(ctx context.Context, userID string) (bool, error) {
	endpoints, err := p.devices.ListEnabled(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("list devices: %w", err)
	}
	return len(endpoints) > 0, nil
}
