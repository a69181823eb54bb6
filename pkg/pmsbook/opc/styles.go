package opc

// Shared style table. Two cell formats: index 0 is the locked default,
// index 1 clears the protection lock for editable cells. The dxf entries
// back the conditional formatting rules (gantt today marker, done/late/
// active bars, and the four status chips) and are addressed by dxfId.

const (
	// StyleLocked is the default cell format.
	StyleLocked = 0
	// StyleUnlocked marks cells editable under sheet protection.
	StyleUnlocked = 1
	// NumCellStyles bounds valid cell style references.
	NumCellStyles = 2
	// NumDxfStyles bounds valid dxfId references.
	NumDxfStyles = 8
)

const stylesXML = xmlProlog +
	`<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">` +
	`<fonts count="1"><font><sz val="11"/><color theme="1"/><name val="Calibri"/><family val="2"/><scheme val="minor"/></font></fonts>` +
	`<fills count="2"><fill><patternFill patternType="none"/></fill><fill><patternFill patternType="gray125"/></fill></fills>` +
	`<borders count="1"><border><left/><right/><top/><bottom/><diagonal/></border></borders>` +
	`<cellStyleXfs count="1"><xf numFmtId="0" fontId="0" fillId="0" borderId="0"/></cellStyleXfs>` +
	`<cellXfs count="2">` +
	`<xf numFmtId="0" fontId="0" fillId="0" borderId="0" xfId="0"/>` +
	`<xf numFmtId="0" fontId="0" fillId="0" borderId="0" xfId="0" applyProtection="1"><protection locked="0"/></xf>` +
	`</cellXfs>` +
	`<cellStyles count="1"><cellStyle name="標準" xfId="0" builtinId="0"/></cellStyles>` +
	`<dxfs count="8">` +
	`<dxf><border><right style="medium"><color rgb="FFE74C3C"/></right></border></dxf>` +
	`<dxf><fill><patternFill patternType="solid"><fgColor rgb="FF95A5A6"/><bgColor indexed="64"/></patternFill></fill></dxf>` +
	`<dxf><fill><patternFill patternType="solid"><fgColor rgb="FFE74C3C"/><bgColor indexed="64"/></patternFill></fill></dxf>` +
	`<dxf><fill><patternFill patternType="solid"><fgColor rgb="FF3498DB"/><bgColor indexed="64"/></patternFill></fill></dxf>` +
	`<dxf><fill><patternFill patternType="solid"><fgColor rgb="FFBDC3C7"/><bgColor indexed="64"/></patternFill></fill></dxf>` +
	`<dxf><font><color rgb="FFFFFFFF"/></font><fill><patternFill patternType="solid"><fgColor rgb="FF3498DB"/><bgColor indexed="64"/></patternFill></fill></dxf>` +
	`<dxf><font><color rgb="FFFFFFFF"/></font><fill><patternFill patternType="solid"><fgColor rgb="FFE74C3C"/><bgColor indexed="64"/></patternFill></fill></dxf>` +
	`<dxf><font><color rgb="FFFFFFFF"/></font><fill><patternFill patternType="solid"><fgColor rgb="FF2ECC71"/><bgColor indexed="64"/></patternFill></fill></dxf>` +
	`</dxfs>` +
	`<tableStyles count="0" defaultTableStyle="TableStyleMedium9" defaultPivotStyle="PivotStyleLight16"/>` +
	`</styleSheet>`
