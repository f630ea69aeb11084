package delivery

import (
	"fmt"
	"sync"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/osteele/liquid"
)

// Template names.
const (
	TemplateSMS          = "sms"
	TemplateEmailSubject = "email_subject"
	TemplateEmailBody    = "email_body"
)

var defaultTemplates = map[string]string{
	TemplateSMS: `Hi {{ customer.first_name | default: "there" }}, your voucher {{ voucher.code }} is worth {{ voucher.value | money }}` +
		`{% if voucher.expires_at != "" %}, valid until {{ voucher.expires_at }}{% endif %}.`,
	TemplateEmailSubject: `Your voucher {{ voucher.code }}`,
	TemplateEmailBody: `<p>Hi {{ customer.name }},</p>
<p>Here is your voucher <strong>{{ voucher.code }}</strong> worth {{ voucher.value | money }}.</p>
{% if voucher.expires_at != "" %}<p>It is valid until {{ voucher.expires_at }}.</p>{% endif %}`,
}

// Templates holds parsed liquid templates.
type Templates struct {
	engine *liquid.Engine
	mu     sync.RWMutex
	parsed map[string]*liquid.Template
}

// NewTemplates parses the defaults, replaced by any non-empty override.
func NewTemplates(overrides map[string]string) (*Templates, error) {
	engine := liquid.NewEngine()
	engine.RegisterFilter("money", func(v float64) string { return fmt.Sprintf("%.2f", v) })

	t := &Templates{engine: engine, parsed: map[string]*liquid.Template{}}
	for name, src := range defaultTemplates {
		if o := overrides[name]; o != "" {
			src = o
		}
		if err := t.Set(name, src); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Set parses and stores one template.
func (t *Templates) Set(name, src string) error {
	tpl, err := t.engine.ParseString(src)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", name, err)
	}
	t.mu.Lock()
	t.parsed[name] = tpl
	t.mu.Unlock()
	return nil
}

// Render executes the named template.
func (t *Templates) Render(name string, data map[string]interface{}) (string, error) {
	t.mu.RLock()
	tpl, ok := t.parsed[name]
	t.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown template %s", name)
	}
	out, err := tpl.RenderString(data)
	if err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return out, nil
}

// Bindings exposes customer and voucher fields to templates.
func Bindings(c domain.Customer, v domain.Voucher) map[string]interface{} {
	expires := ""
	if v.ExpiresAt != nil {
		expires = v.ExpiresAt.Format("2006-01-02")
	}
	return map[string]interface{}{
		"customer": map[string]interface{}{
			"id":         c.ID,
			"name":       c.Name,
			"first_name": firstName(c.Name),
			"phone":      c.Phone,
			"email":      c.Email,
		},
		"voucher": map[string]interface{}{
			"code":        v.Code,
			"value":       v.Value,
			"campaign_id": v.CampaignID,
			"expires_at":  expires,
			"qr_url":      v.QRImageURL,
		},
	}
}

func firstName(name string) string {
	for i, r := range name {
		if r == ' ' {
			return name[:i]
		}
	}
	return name
}
