// Design notes for the geo guessing game.

// Each round, the server picks a random coordinate inside one of a handful
// of well-covered regions, and every player drops a pin where they think it
// is. Closer guesses score more points, on a logarithmic curve that gives
// nothing beyond 1000 miles.

// How to play
// - One player creates a room and shares the 6-character room ID (or the QR code)
// - Everyone else joins with the ID and picks a display name
// - The host starts each round; everyone has 60 seconds to guess
// - The round ends early once every player has locked in a guess
// - After 5 rounds the highest total score wins

// Implementation details:
// - One websocket per client; the server broadcasts a full state snapshot on
//   every change, so clients stay dumb and stateless
// - Player identity is a server-minted ID the client keeps in sessionStorage,
//   so a page reload can reattach to the same seat
// - Round locations can be validated against Street View metadata before use,
//   when an API key is configured

package games
