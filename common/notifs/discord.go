package notifs

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"github.com/disgoorg/snowflake/v2"

	"github.com/ceramicnetwork/go-sqs-flow/common"
	"github.com/ceramicnetwork/go-sqs-flow/common/config"
	"github.com/ceramicnetwork/go-sqs-flow/models"
)

type DiscordColor int

const (
	DiscordColor_None    = iota
	DiscordColor_Info    = 3447003
	DiscordColor_Ok      = 3581519
	DiscordColor_Warning = 16776960
	DiscordColor_Alert   = 16711712
)

const DiscordPacing = 2 * time.Second

// Discord caps embed descriptions at 4096 characters
const discordMaxDescription = 4096

var _ models.Notifier = &DiscordHandler{}

type DiscordHandler struct {
	alertWebhook webhook.Client
	testWebhook  webhook.Client
	logger       models.Logger
}

// NewDiscordHandler returns a notifier for the configured webhooks. With no webhooks configured, alerts are dropped.
func NewDiscordHandler(settings *config.Settings, logger models.Logger) (models.Notifier, error) {
	if a, err := parseDiscordWebhookUrl(settings.DiscordAlertWebhook); err != nil {
		return nil, err
	} else if t, err := parseDiscordWebhookUrl(settings.DiscordTestWebhook); err != nil {
		return nil, err
	} else {
		return &DiscordHandler{a, t, logger}, nil
	}
}

func parseDiscordWebhookUrl(webhookUrl string) (webhook.Client, error) {
	if len(webhookUrl) > 0 {
		if parsedUrl, err := url.Parse(webhookUrl); err != nil {
			return nil, err
		} else {
			urlParts := strings.Split(strings.TrimSuffix(parsedUrl.Path, "/"), "/")
			if len(urlParts) < 2 {
				return nil, fmt.Errorf("notifs: invalid discord webhook url")
			}
			if id, err := snowflake.Parse(urlParts[len(urlParts)-2]); err != nil {
				return nil, err
			} else {
				return webhook.New(id, urlParts[len(urlParts)-1]), nil
			}
		}
	}
	return nil, nil
}

func (d DiscordHandler) SendAlert(title, desc, content string) error {
	var alertErr error
	if d.alertWebhook != nil {
		alertErr = d.sendNotif(d.alertWebhook, title, desc, content, DiscordColor_Alert)
	}
	// Always duplicate notifications to the test channel, if configured.
	if d.testWebhook != nil {
		if err := d.sendNotif(d.testWebhook, title, desc, content, DiscordColor_Alert); err != nil && alertErr == nil {
			alertErr = err
		}
	}
	return alertErr
}

func (d DiscordHandler) sendNotif(wh webhook.Client, title, desc, content string, color DiscordColor) error {
	messageEmbed := discord.Embed{
		Title:       fmt.Sprintf("%s: %s", title, desc),
		Description: truncateDescription(content),
		Type:        discord.EmbedTypeRich,
		Color:       int(color),
	}
	_, err := wh.CreateMessage(discord.NewWebhookMessageCreateBuilder().
		SetEmbeds(messageEmbed).
		SetUsername(common.ServiceName).
		Build(),
		rest.WithDelay(DiscordPacing),
	)
	if err != nil {
		d.logger.Errorf("sendNotif: error sending discord notification: %v, %s, %s", err, title, desc)
		return err
	}
	return nil
}

// truncateDescription cuts content to the embed description limit, counted in runes.
func truncateDescription(content string) string {
	if utf8.RuneCountInString(content) <= discordMaxDescription {
		return content
	}
	return string([]rune(content)[:discordMaxDescription-3]) + "..."
}
