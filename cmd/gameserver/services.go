package main

import (
	"github.com/cory-johannsen/dungeon/internal/server"
)

// services are the long-running parts of the game server.
type services struct {
	database      server.Service
	persistence   server.Service
	notifications server.Service
	websocket     server.Service
	engine        server.Service
}

// register adds s to lc so that each service is added after what it depends
// on. Lifecycle stops in reverse: the engine stops producing first and the
// database closes only after the progress writer's final flush.
func (s services) register(lc *server.Lifecycle) {
	lc.Add("postgres", s.database)
	lc.Add("persistence", s.persistence)
	lc.Add("notifications", s.notifications)
	lc.Add("websocket", s.websocket)
	lc.Add("engine", s.engine)
}
