package domain

// TreeNode is one node of the infection tree rendered by the front end.
type TreeNode struct {
	Name      string     `json:"name"`
	ID        string     `json:"id"`
	Children  []TreeNode `json:"children"`
	Collapsed bool       `json:"collapsed,omitempty"`
	Style     *NodeStyle `json:"style,omitempty"`
}

// NodeStyle colours a node.
type NodeStyle struct {
	Fill   string `json:"fill"`
	Stroke string `json:"stroke"`
}

// RootStyle is applied to the root of every infection tree.
var RootStyle = NodeStyle{Fill: "#FFDBD9", Stroke: "#FF6D67"}
