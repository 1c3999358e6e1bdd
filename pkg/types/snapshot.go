package types

// Server -> Client
// STATE_UPDATE:
//   version: number     // bumps once per accepted action
//   you: string         // player id this connection acts as
//   state:
//     code, status: "WAITING" | "PLAYING", roleDistributionMode
//     players: [{ id, name, photoUrl?, isHost, isBot, isOnline, isEliminated,
//                 isUnconvertible, hasTongue, notRole?, joinedAt }]
//     assignments: { [playerId]: role }, originalRoles, convertedPlayerIds
//     isFloggingUsed, isGunsStashUsed, isCultCabinSearchUsed, isOffWithTongueUsed
//     roleSelectionStatus, conversionStatus, cabinSearchStatus, cultCabinSearchStatus,
//     gunsStashStatus, floggingStatus, feedTheKrakenStatus, offWithTongueStatus
//       // each ritual carries phase: "IDLE" | "PENDING" | "SETUP" | "ACTIVE" | "COMPLETED" |
//       // "CANCELLED", generation, initiatorId?, targetId?, startTime?/endTime? (ms since
//       // epoch), duration?, cancelReason?, and its own participants and result
//     outcome?: { winner: "CULT", reason: "cultLeaderFed" }
//     rules: { conversionSeconds, gunsStashSeconds, cultCabinSearchSeconds, gunsPerStash }
//
// GAME_STARTED:
//   version: number     // sent once, right after the STATE_UPDATE that began the match
//
// ERROR:
//   message: "Key|param:value|..." // e.g. "BelowMinimumPlayers|min:5|count:4"
//   // sent to the sender of a rejected action only, except role selection failures
//   // which every connection receives. "Kicked" precedes the server closing the socket.
