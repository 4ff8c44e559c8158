package notify

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"io"
	"net"
	"net/smtp"
	"strconv"
	texttemplate "text/template"

	"github.com/emersion/go-message/mail"
	"github.com/rotisserie/eris"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

const textBody = `{{.Qualified}} qualified, {{.Discarded}} discarded, {{.Total}} evaluated.
{{if .TopLeads}}
Top leads:
{{range $i, $l := .TopLeads}}{{inc $i}}. {{$l.Name}} ({{$l.Role}}, {{$l.Company}}) score {{$l.Score}}
   {{$l.Reason}}
{{end}}{{else}}
No qualified leads this run.
{{end}}{{if .SheetURL}}
Sheet: {{.SheetURL}}
{{end}}`

const htmlBody = `<html><body style="font-family:sans-serif">
<p><strong>{{.Qualified}}</strong> qualified, <strong>{{.Discarded}}</strong> discarded, <strong>{{.Total}}</strong> evaluated.</p>
{{if .TopLeads}}<table cellpadding="6" style="border-collapse:collapse">
<tr><th align="left">Name</th><th align="left">Role</th><th align="left">Company</th><th>Score</th><th align="left">Reason</th></tr>
{{range .TopLeads}}<tr><td>{{.Name}}</td><td>{{.Role}}</td><td>{{.Company}}</td><td align="center">{{.Score}}</td><td>{{.Reason}}</td></tr>
{{end}}</table>{{else}}<p>No qualified leads this run.</p>{{end}}
{{if .SheetURL}}<p><a href="{{.SheetURL}}">Open the lead sheet</a></p>{{end}}
</body></html>`

var (
	textTmpl = texttemplate.Must(texttemplate.New("text").Funcs(texttemplate.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(textBody))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(htmlBody))
)

// SMTPConfig holds the mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends the digest as a text and HTML email.
type EmailNotifier struct {
	cfg  SMTPConfig
	send sendFunc
}

// NewEmail creates an EmailNotifier. smtp.SendMail upgrades the connection
// with STARTTLS when the server offers it.
func NewEmail(cfg SMTPConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, send: smtp.SendMail}
}

// Notify implements Notifier.
func (e *EmailNotifier) Notify(ctx context.Context, digest model.Digest) error {
	if len(e.cfg.To) == 0 {
		return eris.New("notify: email has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "notify: email")
	}
	msg, err := e.compose(digest)
	if err != nil {
		return err
	}
	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}
	addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))
	if err := e.send(addr, auth, e.cfg.From, e.cfg.To, msg); err != nil {
		return eris.Wrapf(err, "notify: send email via %s", addr)
	}
	return nil
}

func (e *EmailNotifier) compose(digest model.Digest) ([]byte, error) {
	from, err := mail.ParseAddress(e.cfg.From)
	if err != nil {
		return nil, eris.Wrapf(err, "notify: parse from address %q", e.cfg.From)
	}
	to := make([]*mail.Address, 0, len(e.cfg.To))
	for _, addr := range e.cfg.To {
		a, err := mail.ParseAddress(addr)
		if err != nil {
			return nil, eris.Wrapf(err, "notify: parse recipient %q", addr)
		}
		to = append(to, a)
	}

	var h mail.Header
	h.SetDate(digest.CreatedAt)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	h.SetSubject(Subject(digest))

	var buf bytes.Buffer
	w, err := mail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, eris.Wrap(err, "notify: create message")
	}
	if err := writePart(w, "text/plain", func(out io.Writer) error { return textTmpl.Execute(out, digest) }); err != nil {
		return nil, err
	}
	if err := writePart(w, "text/html", func(out io.Writer) error { return htmlTmpl.Execute(out, digest) }); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, eris.Wrap(err, "notify: close message")
	}
	return buf.Bytes(), nil
}

func writePart(w *mail.InlineWriter, contentType string, render func(io.Writer) error) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	pw, err := w.CreatePart(ph)
	if err != nil {
		return eris.Wrapf(err, "notify: create %s part", contentType)
	}
	if err := render(pw); err != nil {
		return eris.Wrapf(err, "notify: render %s", contentType)
	}
	return pw.Close()
}
