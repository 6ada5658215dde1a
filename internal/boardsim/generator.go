package boardsim

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const randomFloatDivisor = 1000000

var firstNames = []string{
	"Ana", "Berta", "Carla", "Daniela", "Elena", "Fernanda", "Gabriela",
	"Isidora", "Javiera", "Karina", "Lucía", "Macarena", "Natalia", "Olga",
	"Paula", "Rocío", "Sofía", "Trinidad", "Valentina", "Ximena",
}

// getRandomFloat returns a random float64 in [0, 1) using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomIndex returns a random index in [0, n).
func randomIndex(n int) int {
	if n <= 1 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateMembers creates n profiles with unique ids and shirt numbers.
func generateMembers(n int) []Player {
	members := make([]Player, n)
	for i := range members {
		number := i + 1
		name := firstNames[i%len(firstNames)]
		if i >= len(firstNames) {
			name += " " + strconv.Itoa(i/len(firstNames)+1)
		}
		members[i] = Player{ID: uuid.NewString(), Name: name, Number: &number}
	}
	return members
}

// generateEvent creates the match the run plays on.
func generateEvent(creatorID string, now time.Time) Event {
	return Event{
		Title:     "Simulación " + now.Format("2006-01-02 15:04:05"),
		Date:      now.Format("2006-01-02"),
		CreatorID: creatorID,
	}
}

// dragStep returns a pointer offset in [-maxDragStep, maxDragStep].
func dragStep() float64 {
	return (getRandomFloat()*2 - 1) * maxDragStep
}
