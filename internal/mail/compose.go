package mail

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templates embed.FS

const product = "RBAC"

// Composer renders email bodies from the embedded templates.
type Composer struct {
	engine *html.Engine
}

func NewComposer() (*Composer, error) {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, err
	}
	return &Composer{engine: engine}, nil
}

// Verification builds the "verify your email" message for name at to.
func (c *Composer) Verification(to, name, link string) (Message, error) {
	var buf bytes.Buffer
	err := c.engine.Render(&buf, "verify_email", fiber.Map{
		"Product": product,
		"Name":    name,
		"Link":    link,
	})
	if err != nil {
		return Message{}, err
	}
	text := fmt.Sprintf(`Hi %s,

Welcome to our app! We're very excited to have you on board.

To verify your email please open the following link:
%s

Need help, or have questions? Just reply to this email.

%s`, name, link, product)

	return Message{
		To:      to,
		Subject: "Verify Your Email",
		Text:    text,
		HTML:    buf.String(),
	}, nil
}
