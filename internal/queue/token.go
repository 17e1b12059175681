package queue

// DefaultTokenFloor is the value below which no real token is issued.
const DefaultTokenFloor int64 = 100

// NextToken returns the token that follows highest. The first token of a salon is floor+1.
func NextToken(highest, floor int64) int64 {
	if highest < floor {
		highest = floor
	}
	return highest + 1
}
