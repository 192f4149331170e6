package pipeline

import (
	"github.com/amonks/assetpipe/runner"
	"github.com/amonks/assetpipe/session"
)

// Bindings returns what a dev session watches, and what it does when those
// files change. Styles and scripts stream their outputs to the page; markup
// changes reload it.
func (p *Pipeline) Bindings() []session.Binding {
	var bs []session.Binding

	bs = append(bs,
		session.Binding{Patterns: p.cfg.Styles.Watch, Node: runner.Run(p.lib.Task(IDStyles))},
		session.Binding{Patterns: p.cfg.Scripts.Watch, Node: runner.Run(p.lib.Task(IDScripts))},
	)

	sprite := p.lib.Task(IDSprite)
	if images := p.lib.Task(IDImages); images != nil {
		node := runner.Node(runner.Run(images))
		if sprite != nil {
			node = runner.Series{runner.Run(images), runner.Run(sprite)}
		}
		bs = append(bs, session.Binding{Patterns: images.Metadata().Watch, Node: node})
	} else if sprite != nil {
		bs = append(bs, session.Binding{Patterns: p.spriteInputs(), Node: runner.Run(sprite)})
	}

	if fonts := p.lib.Task(IDFonts); fonts != nil {
		bs = append(bs, session.Binding{Patterns: fonts.Metadata().Watch, Node: runner.Run(fonts)})
	}

	if templates := p.lib.Task(IDTemplates); templates != nil {
		bs = append(bs, session.Binding{Patterns: templates.Metadata().Watch, Node: runner.Run(templates)})
	}

	for _, t := range p.cfg.Tasks {
		if len(t.Watch) > 0 {
			bs = append(bs, session.Binding{Patterns: t.Watch, Node: runner.Run(p.lib.Task(t.ID))})
		}
	}

	if len(p.cfg.Server.Reload) > 0 {
		bs = append(bs, session.Binding{Patterns: p.cfg.Server.Reload, Reload: true})
	}
	return bs
}
