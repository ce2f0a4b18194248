package game

// samplePGN is the fallback game analyzed when no PGN path is given:
// an engine-vs-engine Slav Defense ending in mate on move 28.
const samplePGN = `[Event "Local Event"]
[Site "Local Site"]
[Date "2025.11.22"]
[Round "1"]
[White "Stockfish 17.1"]
[Black "PyChess.py"]
[Result "1-0"]
[PlyCount "55"]
[Termination "normal"]
[TimeControl "300+30"]
[ECO "D15"]
[Opening "Slav Defense"]
[Variation "Chameleon Variation"]

1. d4 d5 2. c4 c6 3. Nf3 Nf6 4. Nc3 a6 5. e3 Bf5 6. Ne5 Nbd7 7. Qb3 Qc7 8. cxd5
Nxe5 9. dxe5 Nxd5 10. Nxd5 cxd5 11. Bd2 Qxe5 12. Be2 O-O-O 13. Rc1+ Kb8 14. Bxa6
Rd7 15. O-O Ka7 16. Bxb7 Rxb7 17. Qa4+ Kb8 18. Qe8+ Ka7 19. Qa4+ Kb8 20. Bc3 Qd6
21. Qe8+ Bc8 22. Be5 Ka7 23. Bxd6 exd6 24. Rxc8 Rxb2 25. Qd7+ Ka6 26. Qc6+ Ka5
27. Ra8+ Kb4 28. Ra4# 1-0
`
