// Package model holds the typed payloads exchanged with the Discord gateway
// and REST API that jasper reads or writes.
package model

// Hello is the first payload the gateway sends on a new connection.
type Hello struct {
	// HeartbeatInterval is in milliseconds.
	HeartbeatInterval uint64 `json:"heartbeat_interval"`
}

// Handshake is sent as the Identify payload once Hello has been received.
type Handshake struct {
	Token          string              `json:"token"`
	Properties     HandshakeProperties `json:"properties"`
	Compress       bool                `json:"compress"`
	LargeThreshold int                 `json:"large_threshold"`
}

// HandshakeProperties are contained within the handshake and describe the
// device connecting to Discord's server.
type HandshakeProperties struct {
	OS              string `json:"$os"`
	Browser         string `json:"$browser"`
	Device          string `json:"$device"`
	Referrer        string `json:"$referrer"`
	ReferringDomain string `json:"$referring_domain"`
}

// A User stores all data for an individual Discord user.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Avatar        string `json:"avatar"`
	Discriminator string `json:"discriminator"`
	Verified      bool   `json:"verified"`
	Bot           bool   `json:"bot"`
}

// A Guild is the subset of guild data carried by READY.
type Guild struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Unavailable bool   `json:"unavailable"`
}

// A Ready stores all data for the websocket READY event.
type Ready struct {
	Version   int      `json:"v"`
	SessionID string   `json:"session_id"`
	User      *User    `json:"user"`
	Guilds    []*Guild `json:"guilds"`
}

// A Message stores all data related to a specific Discord message. It is
// both the MESSAGE_CREATE event payload and the REST response for a posted
// message.
type Message struct {
	ID              string  `json:"id"`
	ChannelID       string  `json:"channel_id"`
	Content         string  `json:"content"`
	Timestamp       string  `json:"timestamp"`
	EditedTimestamp string  `json:"edited_timestamp"`
	Tts             bool    `json:"tts"`
	MentionEveryone bool    `json:"mention_everyone"`
	Author          *User   `json:"author"`
	Mentions        []*User `json:"mentions"`
}

// OutgoingMessage is the body of a create-message REST request.
type OutgoingMessage struct {
	Content      string `json:"content"`
	TextToSpeech bool   `json:"text_to_speech"`
}

// A Game struct holds the name of the "playing .." game for a user
type Game struct {
	Name string `json:"name"`
}

// StatusUpdate is sent with the StatusUpdate operation to change the bot's
// presence.
type StatusUpdate struct {
	IdleSince *int64 `json:"idle_since"`
	Game      *Game  `json:"game"`
}

// GatewayResponse is returned from /gateway on Discord's API.
type GatewayResponse struct {
	URL string `json:"url"`
}
