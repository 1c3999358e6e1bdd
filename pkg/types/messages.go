package types

// Client -> Server
// Every frame is {"type": "<ACTION>", ...fields}. The acting player is the one the
// connection was opened for (/ws?code=ABC123&playerId=...), never a field of the frame.
//
// PING: {} // keeps the connection inside the read timeout, no reply
//
// Lobby:
//   CREATE_LOBBY:                name?: string, photoUrl?: string
//   JOIN_LOBBY:                  name?: string, photoUrl?: string
//   LEAVE_LOBBY:                 {}
//   KICK_PLAYER:                 targetPlayerId: string            // host
//   ADD_BOT:                     name?: string                     // host
//   UPDATE_PROFILE:              name?: string, photoUrl?: string, playerId?: string // host may edit a bot
//   SET_ROLE_DISTRIBUTION_MODE:  mode: "AUTOMATIC" | "MANUAL"      // host
//   START_GAME:                  {}                                // host
//   RESET_GAME:                  {}                                // host
//   BACK_TO_LOBBY:               {}                                // host
//
// Manual role selection:
//   SELECT_ROLE:            role: "SAILOR" | "PIRATE" | "CULT_LEADER" | "CULTIST"
//   CONFIRM_ROLE:           {}
//   CANCEL_ROLE_SELECTION:  {}                                     // host
//
// Rituals (one live at a time). The table's captain initiates the target rituals; the
// server only checks the initiator is alive:
//   CABIN_SEARCH_REQUEST:                targetPlayerId
//   CABIN_SEARCH_RESPONSE:               accept: boolean           // target
//   FLOGGING_REQUEST:                    targetPlayerId
//   FLOGGING_CONFIRMATION_RESPONSE:      accept: boolean           // target
//   FEED_THE_KRAKEN_REQUEST:             targetPlayerId
//   FEED_THE_KRAKEN_RESPONSE:            accept: boolean           // target
//   OFF_WITH_TONGUE_REQUEST:             targetPlayerId
//   OFF_WITH_TONGUE_RESPONSE:            accept: boolean           // target
//   DENIAL_OF_COMMAND:                   {}                        // any alive player but the initiator
//
//   START_CONVERSION:                    {}                        // cult leader
//   RESPOND_CONVERSION:                  accept: boolean
//   SUBMIT_CONVERSION_ACTION:            action: "PICK_PLAYER" | "ANSWER_QUIZ", targetPlayerId?, answer?
//
//   START_CULT_CABIN_SEARCH:             {}                        // cult leader
//   CLAIM_CULT_CABIN_SEARCH_ROLE:        role: "CAPTAIN" | "NAVIGATOR" | "LIEUTENANT" | "CREW"
//   SUBMIT_CULT_CABIN_SEARCH_ACTION:     action: "ANSWER_QUIZ", answer
//   CANCEL_CULT_CABIN_SEARCH:            {}                        // cult leader
//
//   START_CULT_GUNS_STASH:               {}                        // cult leader
//   CONFIRM_CULT_GUNS_STASH_READY:       accept: boolean           // false cancels for everyone
//   SUBMIT_CULT_GUNS_STASH_DISTRIBUTION: distribution: { [playerId]: number } // cult leader
//   SUBMIT_CULT_GUNS_STASH_ACTION:       action: "ANSWER_QUIZ", answer
//   CANCEL_CULT_GUNS_STASH:              {}                        // cult leader
