package common

// AuthorizationHeaderName carries the administrator bearer token.
const AuthorizationHeaderName = "Authorization"

// ChallengeSize is the number of random bytes in a ceremony challenge.
const ChallengeSize = 32
