package controller

import (
	"github.com/raveai/server/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())
	mux.OnError(c.handleWSError)

	wsrouter.Handle(mux, "ALIVE", c.handleAlive)
	wsrouter.Handle(mux, "GET_STATE", c.handleGetState)

	// decks and player
	wsrouter.Handle(mux, "UPDATE_DECK_URL", c.handleUpdateDeckURL)
	wsrouter.Handle(mux, "TOGGLE_PLAYBACK", c.handleTogglePlayback)
	wsrouter.Handle(mux, "UPDATE_VOLUME", c.handleUpdateVolume)

	// mashups
	wsrouter.Handle(mux, "TOGGLE_TRACK", c.handleToggleTrack)
	wsrouter.Handle(mux, "CREATE_MASHUP", c.handleCreateMashup)

	return mux
}
