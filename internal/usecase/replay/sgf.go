package replay

import (
	"fmt"
	"strconv"
	"strings"

	"goreview/internal/domain/game"
	"goreview/internal/domain/sgf"
)

// sgfPropertyOrder is the fixed rendering order for known SGF
// properties; anything else follows in map order.
var sgfPropertyOrder = []string{"FF", "GM", "SZ", "PB", "PW", "DT", "RE", "KM", "RU", "B", "W", "C"}

// PrepareSGF builds the SGF document for a game record: one root node
// with the game metadata followed by one node per ply.
func PrepareSGF(gameData game.Game) *sgf.SGF {
	root := &sgf.GameTree{
		Nodes: []sgf.Node{
			{
				Properties: map[string][]string{
					"FF": {"4"},
					"GM": {"1"},
					"SZ": {strconv.Itoa(gameData.BoardSize)},
					"PB": {gameData.PlayerBlack.ID},
					"PW": {gameData.PlayerWhite.ID},
					"DT": {gameData.CreatedAt.Format("2006-01-02")},
					"RE": {gameData.Winner},
					"KM": {strconv.FormatFloat(gameData.Komi, 'f', 1, 64)},
					"RU": {"Chinese"},
				},
			},
		},
	}
	for _, rec := range gameData.Moves {
		root.Nodes = append(root.Nodes, sgf.Node{
			Properties: map[string][]string{
				rec.Color: {rec.Coordinates},
			},
		})
	}
	return &sgf.SGF{Root: root}
}

func SerializeSGF(s *sgf.SGF) string {
	var builder strings.Builder
	builder.WriteString("(")
	serializeGameTree(&builder, s.Root)
	builder.WriteString(")")
	return builder.String()
}

func serializeGameTree(builder *strings.Builder, tree *sgf.GameTree) {
	for _, node := range tree.Nodes {
		builder.WriteString(";")

		used := make(map[string]bool)
		for _, key := range sgfPropertyOrder {
			if values, ok := node.Properties[key]; ok {
				used[key] = true
				for _, v := range values {
					builder.WriteString(fmt.Sprintf("%s[%s]", key, v))
				}
			}
		}
		for key, values := range node.Properties {
			if !used[key] {
				for _, v := range values {
					builder.WriteString(fmt.Sprintf("%s[%s]", key, v))
				}
			}
		}
	}

	for _, child := range tree.Children {
		builder.WriteString("(")
		serializeGameTree(builder, child)
		builder.WriteString(")")
	}
}
