package runtimeinit

import (
	"fmt"
	"log"
	"time"

	"quick-translate/src/browser"
	"quick-translate/src/clipboard"
	"quick-translate/src/config"
	"quick-translate/src/favorites"
	"quick-translate/src/llm"
	"quick-translate/src/session"
	"quick-translate/src/translate"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// Clipboard skips system clipboard initialization when set.
	Clipboard clipboard.Clipboard
	// SkipFavorites leaves the favorites database closed.
	SkipFavorites bool
}

// Runtime holds the shared collaborators of the resident and the CLI.
type Runtime struct {
	Env        *config.Env
	Store      *config.Store
	Clipboard  clipboard.Clipboard
	Dispatcher *translate.Dispatcher
	Assistant  *llm.Assistant
	Favorites  *favorites.Store
}

// Bootstrap loads the environment, sets up logging and builds every
// collaborator. A favorites database that cannot be opened is logged and
// left nil; the other failures are returned.
func Bootstrap(opts Options) (*Runtime, error) {
	env, err := config.LoadEnvWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(env.EnableFileLogging)
	}

	rt := &Runtime{Env: env, Store: config.Open(env.SettingsPath)}
	log.Printf("Settings: %s", rt.Store.Path())

	rt.Clipboard = opts.Clipboard
	if rt.Clipboard == nil {
		sys, err := clipboard.Init()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		rt.Clipboard = sys
	}

	timeout := time.Duration(env.HTTPTimeoutSec) * time.Second
	rt.Dispatcher = translate.New(rt.Store, translate.WithTimeout(timeout))
	rt.Assistant = llm.New(llm.Config{
		APIKey:  env.APIKey,
		Model:   env.Model,
		BaseURL: env.LLMBaseURL,
		Timeout: timeout,
	})

	if !opts.SkipFavorites {
		favs, err := favorites.Open(env.FavoritesPath)
		if err != nil {
			log.Printf("Favorites unavailable: %v", err)
		} else {
			rt.Favorites = favs
		}
	}
	return rt, nil
}

// Deps wires the runtime into the action layer.
func (rt *Runtime) Deps() session.Deps {
	deps := session.Deps{
		Store:      rt.Store,
		Translator: rt.Dispatcher,
		Clipboard:  rt.Clipboard,
		Open:       browser.Open,
	}
	if rt.Assistant != nil {
		deps.Assistant = rt.Assistant
	}
	if rt.Favorites != nil {
		deps.Favorites = rt.Favorites
	}
	return deps
}

func (rt *Runtime) Close() {
	if rt.Favorites != nil {
		if err := rt.Favorites.Close(); err != nil {
			log.Printf("Favorites close: %v", err)
		}
	}
}
